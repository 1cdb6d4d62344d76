// Package merkle folds an ordered sequence of step digests into a single
// trace commitment.
//
// The tree is binary and built bottom-up, level by level, over an indexed
// slice rather than by recursion, so arbitrarily long traces cannot exhaust
// the stack. When a level has an odd number of nodes the last digest is
// paired with itself; this duplicate-last policy is part of the commitment
// definition and changes the root value, so it must be reproduced exactly by
// every implementation.
package merkle

import (
	"runtime"
	"sync"

	"github.com/97woo/OracleVM/crypto"
	"github.com/97woo/OracleVM/trace"
)

// parallelThreshold is the level width above which pair hashing is spread
// across worker goroutines. Parallelism never changes the root: each parent
// slot depends only on its two children.
const parallelThreshold = 2048

// Root commits to the ordered leaf sequence with the given algorithm.
//
// Special cases: zero leaves commit to Hash(empty), a single leaf is its own
// root without hashing. Otherwise each parent is Hash(left || right) over the
// raw digest bytes, and the fold repeats until one node remains.
func Root(alg crypto.HashAlgorithm, leaves []trace.Digest) trace.Digest {
	switch len(leaves) {
	case 0:
		return alg.Sum()
	case 1:
		out := make(trace.Digest, len(leaves[0]))
		copy(out, leaves[0])
		return out
	}

	level := make([]trace.Digest, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		parents := make([]trace.Digest, len(level)/2)
		if len(parents) >= parallelThreshold {
			hashLevelParallel(alg, level, parents)
		} else {
			for i := range parents {
				parents[i] = alg.Sum(level[2*i], level[2*i+1])
			}
		}
		level = parents
	}
	return level[0]
}

// hashLevelParallel fills parents[i] = H(level[2i] || level[2i+1]) using one
// worker per CPU over disjoint index ranges.
func hashLevelParallel(alg crypto.HashAlgorithm, level, parents []trace.Digest) {
	workers := runtime.NumCPU()
	if workers > len(parents) {
		workers = len(parents)
	}
	chunk := (len(parents) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(parents) {
			hi = len(parents)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				parents[i] = alg.Sum(level[2*i], level[2*i+1])
			}
		}(lo, hi)
	}
	wg.Wait()
}

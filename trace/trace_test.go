package trace

import (
	"errors"
	"fmt"
	"testing"
)

// syntheticTrace builds n distinct single-byte-pattern digests.
func syntheticTrace(n int) []Digest {
	digests := make([]Digest, n)
	for i := range digests {
		digests[i] = []byte(fmt.Sprintf("digest-%d", i))
	}
	return digests
}

func TestSampleCheckpointsCoverage(t *testing.T) {
	// 907 steps at interval 100: multiples of 100 plus the appended terminal 906.
	digests := syntheticTrace(907)
	cps, err := SampleCheckpoints(digests, 100)
	if err != nil {
		t.Fatalf("SampleCheckpoints error: %v", err)
	}

	want := []uint64{0, 100, 200, 300, 400, 500, 600, 700, 800, 900, 906}
	if len(cps) != len(want) {
		t.Fatalf("got %d checkpoints, want %d", len(cps), len(want))
	}
	for i, step := range want {
		if cps[i].Step != step {
			t.Errorf("checkpoint[%d].Step = %d, want %d", i, cps[i].Step, step)
		}
	}
	if string(cps[len(cps)-1].Digest) != "digest-906" {
		t.Errorf("terminal digest = %q, want digest-906", cps[len(cps)-1].Digest)
	}
}

func TestSampleCheckpointsNoTerminalDuplicate(t *testing.T) {
	// N-1 = 900 is a multiple of the interval: it must appear exactly once.
	cps, err := SampleCheckpoints(syntheticTrace(901), 100)
	if err != nil {
		t.Fatalf("SampleCheckpoints error: %v", err)
	}
	last, prev := cps[len(cps)-1], cps[len(cps)-2]
	if last.Step != 900 {
		t.Errorf("terminal step = %d, want 900", last.Step)
	}
	if prev.Step == 900 {
		t.Error("terminal checkpoint duplicated")
	}
}

func TestSampleCheckpointsSingleStep(t *testing.T) {
	cps, err := SampleCheckpoints(syntheticTrace(1), 100)
	if err != nil {
		t.Fatalf("SampleCheckpoints error: %v", err)
	}
	if len(cps) != 1 || cps[0].Step != 0 {
		t.Errorf("got %v, want single checkpoint at step 0", cps)
	}
}

func TestSampleCheckpointsEmptyTrace(t *testing.T) {
	if _, err := SampleCheckpoints(nil, 100); !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("err = %v, want ErrEmptyTrace", err)
	}
}

func TestSampleCheckpointsZeroInterval(t *testing.T) {
	if _, err := SampleCheckpoints(syntheticTrace(10), 0); !errors.Is(err, ErrBadInterval) {
		t.Errorf("err = %v, want ErrBadInterval", err)
	}
}

func TestVerifyCheckpoints(t *testing.T) {
	digests := syntheticTrace(907)
	cps, _ := SampleCheckpoints(digests, 100)
	if err := VerifyCheckpoints(cps, 907); err != nil {
		t.Errorf("sampled checkpoints should verify: %v", err)
	}

	// Missing terminal.
	if err := VerifyCheckpoints(cps[:len(cps)-1], 907); !errors.Is(err, ErrMissingTerminal) {
		t.Errorf("err = %v, want ErrMissingTerminal", err)
	}

	// Non-monotonic.
	bad := []Checkpoint{{Step: 5}, {Step: 5}, {Step: 906}}
	if err := VerifyCheckpoints(bad, 907); !errors.Is(err, ErrNonMonotonic) {
		t.Errorf("err = %v, want ErrNonMonotonic", err)
	}

	// Step beyond terminal.
	over := []Checkpoint{{Step: 0}, {Step: 907}}
	if err := VerifyCheckpoints(over, 907); !errors.Is(err, ErrNonMonotonic) {
		t.Errorf("err = %v, want ErrNonMonotonic", err)
	}
}

package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFeedback map[int]int64

func (f fakeFeedback) Value(rank int) int64 { return f[rank] }

func TestCyclicPolicy_StrictRoundRobin(t *testing.T) {
	p := NewCyclicPolicy()
	const n = 3

	got := []int{}
	for i := 0; i < 6; i++ {
		got = append(got, p.Next(n, nil))
	}

	assert.Equal(t, []int{1, 2, 3, 1, 2, 3}, got)
}

func TestCyclicPolicy_SingleWorkerAlwaysRankOne(t *testing.T) {
	p := NewCyclicPolicy()
	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, p.Next(1, nil))
	}
}

func TestComputeFilesPerProc_ExactMultiple(t *testing.T) {
	// F=6, 3 workers -> files_per_proc = 6/3 = 2, exact multiple so no
	// decrement.
	assert.Equal(t, 2, ComputeFilesPerProc(6, 3))
}

func TestComputeFilesPerProc_NonExactDecrements(t *testing.T) {
	// F not a multiple of N-1: floor(F/(N-1)) - 1, per spec.md's
	// documented (not "fixed") off-by-one.
	assert.Equal(t, 1, ComputeFilesPerProc(7, 3))
}

func TestBlockPolicy_DistributesInBlocks(t *testing.T) {
	filesPerProc := ComputeFilesPerProc(6, 3)
	p := NewBlockPolicy(filesPerProc)

	got := []int{}
	for i := 0; i < 6; i++ {
		got = append(got, p.Next(3, nil))
	}

	assert.Equal(t, []int{1, 1, 2, 2, 3, 3}, got)
}

func TestBlockPolicy_TrailingFilesStillAdvance(t *testing.T) {
	// F=7, N-1=3 workers: files_per_proc = floor(7/3)-1 = 1, so every
	// file advances the rank and wraps back to 1 via the modulus.
	filesPerProc := ComputeFilesPerProc(7, 3)
	p := NewBlockPolicy(filesPerProc)

	got := []int{}
	for i := 0; i < 7; i++ {
		got = append(got, p.Next(3, nil))
	}

	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, got)
}

func TestRandomPolicy_StaysInRange(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(42)))
	const n = 4
	for i := 0; i < 200; i++ {
		rank := p.Next(n, nil)
		assert.GreaterOrEqual(t, rank, 1)
		assert.LessOrEqual(t, rank, n)
	}
}

func TestRandomPolicy_SingleWorker(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(1)))
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, p.Next(1, nil))
	}
}

func TestQueueSizePolicy_PicksMinimum(t *testing.T) {
	p := NewQueueSizePolicy()
	fb := fakeFeedback{1: 100, 2: 10, 3: 50}
	assert.Equal(t, 2, p.Next(3, fb))
}

func TestQueueSizePolicy_TiesBreakToLowestRank(t *testing.T) {
	p := NewQueueSizePolicy()
	fb := fakeFeedback{1: 5, 2: 5, 3: 5}
	assert.Equal(t, 1, p.Next(3, fb))
}

// TestQueueLengthPolicy_FeedbackDriven reproduces spec.md's
// queue-length scenario: after the first assignment to rank 1, rank 1
// reports local size 1, so the next assignment must go to rank 2.
func TestQueueLengthPolicy_FeedbackDriven(t *testing.T) {
	p := NewQueueLengthPolicy()

	fb := fakeFeedback{1: 0, 2: 0}
	assert.Equal(t, 1, p.Next(2, fb))

	fb[1] = 1
	assert.Equal(t, 2, p.Next(2, fb))
}

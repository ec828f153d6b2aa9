package bytetrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateLengthMismatch(t *testing.T) {
	tracker := NewDefault()
	_, _, err := tracker.Update([][4]float64{{0, 0, 10, 10}}, []float64{0.9, 0.8}, []int{0})
	require.Error(t, err)
}

func TestHighConfidenceCreatesTracks(t *testing.T) {
	tracker := NewDefault()
	boxes, ids, err := tracker.Update(
		[][4]float64{{10, 20, 30, 40}, {100, 200, 30, 40}, {300, 300, 30, 40}},
		[]float64{0.9, 0.8, 0.3},
		[]int{0, 0, 0},
	)
	require.NoError(t, err)
	// Low confidence detection does not start a track
	require.Equal(t, []int{1, 2}, ids)
	require.Equal(t, [][4]float64{{10, 20, 40, 60}, {100, 200, 130, 240}}, boxes)
	require.Equal(t, 2, tracker.Len())
}

func TestContinuityAndSecondStage(t *testing.T) {
	for _, algorithm := range []MatchingAlgorithm{MatchingAlgorithmHungarian, MatchingAlgorithmGreedy} {
		tracker := New(30, 0.3, 0.5, 0.1, algorithm)
		_, ids, err := tracker.Update(
			[][4]float64{{10, 20, 30, 40}, {100, 200, 30, 40}},
			[]float64{0.9, 0.9},
			[]int{0, 0},
		)
		require.NoError(t, err)
		require.Equal(t, []int{1, 2}, ids)

		// Second object is only weakly detected: matched in the second stage
		_, ids, err = tracker.Update(
			[][4]float64{{102, 202, 30, 40}, {12, 22, 30, 40}},
			[]float64{0.2, 0.9},
			[]int{0, 0},
		)
		require.NoError(t, err)
		require.ElementsMatch(t, []int{1, 2}, ids, "algorithm %d", algorithm)
		require.Equal(t, 2, tracker.Len())
	}
}

func TestClassesDoNotMix(t *testing.T) {
	tracker := NewDefault()
	_, ids, err := tracker.Update([][4]float64{{10, 20, 30, 40}}, []float64{0.9}, []int{0})
	require.NoError(t, err)
	require.Equal(t, []int{1}, ids)

	_, ids, err = tracker.Update([][4]float64{{10, 20, 30, 40}}, []float64{0.9}, []int{1})
	require.NoError(t, err)
	require.Equal(t, []int{2}, ids)
}

func TestDisappearedTracksRemoved(t *testing.T) {
	tracker := New(2, 0.3, 0.5, 0.1, MatchingAlgorithmHungarian)
	_, _, err := tracker.Update([][4]float64{{10, 20, 30, 40}}, []float64{0.9}, []int{0})
	require.NoError(t, err)

	boxes, ids, err := tracker.Update(nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, boxes)
	require.Empty(t, ids)
	require.Equal(t, 1, tracker.Len())

	_, _, err = tracker.Update(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, tracker.Len())
}

func TestPairHeapOrder(t *testing.T) {
	candidates := make(pairHeap, 0)
	candidates.Push(candidatePair{trackIdx: 1, detectionIdx: 0, cost: 0.5})
	candidates.Push(candidatePair{trackIdx: 0, detectionIdx: 2, cost: 0.1})
	candidates.Push(candidatePair{trackIdx: 0, detectionIdx: 1, cost: 0.5})
	candidates.Push(candidatePair{trackIdx: 2, detectionIdx: 2, cost: 0.9})

	expected := []candidatePair{
		{trackIdx: 0, detectionIdx: 2, cost: 0.1},
		{trackIdx: 0, detectionIdx: 1, cost: 0.5},
		{trackIdx: 1, detectionIdx: 0, cost: 0.5},
		{trackIdx: 2, detectionIdx: 2, cost: 0.9},
	}
	for i, want := range expected {
		require.Equal(t, want, candidates.Pop(), "pop %d", i)
	}
	require.Equal(t, 0, candidates.Len())
}

func TestGreedyMatching(t *testing.T) {
	tracker := New(30, 0.3, 0.5, 0.1, MatchingAlgorithmGreedy)
	matches := tracker.performGreedyMatching([][]float64{
		{0.9, 0.8},
		{0.85, 0.1},
	})
	// Best pair first, then the remaining row may only take what is left and above minIoU
	require.Equal(t, [][2]int{{0, 0}}, matches)
}

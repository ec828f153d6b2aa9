// Package sort is a SORT (Simple Online and Realtime Tracking) implementation:
// Kalman filter per track and Hungarian assignment on IoU.
//
// Output follows the native SORT format: one row [x1, y1, x2, y2, id] per reported track.
// Order and count of output rows are unrelated to the input detections.
package sort

import (
	"fmt"
	"math"

	"github.com/arthurkushman/go-hungarian"
	"github.com/numediart/vsensebox/internal/kalmanbox"
	"github.com/pkg/errors"
)

// Tracker is SORT tracking session
type Tracker struct {
	// Max number of frames a track is kept alive without matched detection
	maxAge int
	// Min number of consecutive hits before a track is reported
	minHits int
	// Min IoU for detection to be assigned to a track
	iouThreshold float64
	tracks       []*kalmanbox.Track
	frameCount   int
	nextID       int
}

// NewDefault creates SORT tracker with default parameters: maxAge = 1, minHits = 3, iouThreshold = 0.3
func NewDefault() *Tracker {
	return New(1, 3, 0.3)
}

// New creates new SORT tracking session
func New(maxAge, minHits int, iouThreshold float64) *Tracker {
	return &Tracker{
		maxAge:       maxAge,
		minHits:      minHits,
		iouThreshold: iouThreshold,
		tracks:       make([]*kalmanbox.Track, 0),
		nextID:       1,
	}
}

// Update runs predict/update cycle for a single frame.
// Detections are rows of [x1, y1, x2, y2, score].
// Must be called once for each frame even with empty detections.
func (tracker *Tracker) Update(detections [][5]float64) ([][]float64, error) {
	tracker.frameCount++

	// Predict next positions for all existing tracks, drop broken ones
	predicted := make([][4]float64, 0, len(tracker.tracks))
	alive := tracker.tracks[:0]
	for _, track := range tracker.tracks {
		box := track.Predict()
		if hasNaN(box) {
			continue
		}
		alive = append(alive, track)
		predicted = append(predicted, box)
	}
	tracker.tracks = alive

	matches, unmatchedDetections := associate(detections, predicted, tracker.iouThreshold)

	for detIdx, trackIdx := range matches {
		det := detections[detIdx]
		err := tracker.tracks[trackIdx].Update([4]float64{det[0], det[1], det[2], det[3]}, det[4])
		if err != nil {
			return nil, errors.Wrapf(err, "Can't update track with id %d", tracker.tracks[trackIdx].ID())
		}
	}

	for _, detIdx := range unmatchedDetections {
		det := detections[detIdx]
		tracker.tracks = append(tracker.tracks, kalmanbox.New([4]float64{det[0], det[1], det[2], det[3]}, tracker.nextID, det[4]))
		tracker.nextID++
	}

	rows := make([][]float64, 0, len(tracker.tracks))
	kept := tracker.tracks[:0]
	for _, track := range tracker.tracks {
		if track.NoMatchTimes() < 1 && (track.HitStreak() >= tracker.minHits || tracker.frameCount <= tracker.minHits) {
			box := track.Box()
			rows = append(rows, []float64{box[0], box[1], box[2], box[3], float64(track.ID())})
		}
		// Remove track if it was not found for a long time
		if track.NoMatchTimes() > tracker.maxAge {
			continue
		}
		kept = append(kept, track)
	}
	tracker.tracks = kept
	return rows, nil
}

// Len returns number of alive tracks
func (tracker *Tracker) Len() int {
	return len(tracker.tracks)
}

// associate assigns detections to predicted track boxes.
// Returns map detection index -> track index and list of unmatched detection indices.
func associate(detections [][5]float64, predicted [][4]float64, iouThreshold float64) (map[int]int, []int) {
	matches := make(map[int]int)
	if len(predicted) == 0 || len(detections) == 0 {
		unmatched := make([]int, len(detections))
		for i := range detections {
			unmatched[i] = i
		}
		return matches, unmatched
	}

	// Hungarian solver needs square matrix: pad with zero IoU
	size := max(len(detections), len(predicted))
	iouMatrix := make([][]float64, size)
	for i := range iouMatrix {
		iouMatrix[i] = make([]float64, size)
	}
	for d := range detections {
		detBox := [4]float64{detections[d][0], detections[d][1], detections[d][2], detections[d][3]}
		for t := range predicted {
			iouMatrix[d][t] = iou(detBox, predicted[t])
		}
	}

	assignments := hungarian.SolveMax(iouMatrix)
	for detIdx, row := range assignments {
		for trackIdx := range row {
			if detIdx >= len(detections) || trackIdx >= len(predicted) {
				continue
			}
			// Filter out matches with low IoU
			if iouMatrix[detIdx][trackIdx] < iouThreshold {
				continue
			}
			matches[detIdx] = trackIdx
		}
	}

	unmatched := make([]int, 0)
	for d := range detections {
		if _, ok := matches[d]; !ok {
			unmatched = append(unmatched, d)
		}
	}
	return matches, unmatched
}

func iou(a, b [4]float64) float64 {
	xx1 := math.Max(a[0], b[0])
	yy1 := math.Max(a[1], b[1])
	xx2 := math.Min(a[2], b[2])
	yy2 := math.Min(a[3], b[3])
	interArea := math.Max(0, xx2-xx1) * math.Max(0, yy2-yy1)
	if interArea == 0 {
		return 0
	}
	unionArea := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - interArea
	return interArea / unionArea
}

func hasNaN(box [4]float64) bool {
	for _, v := range box {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func (tracker *Tracker) String() string {
	return fmt.Sprintf("SORT(frame=%d, tracks=%d)", tracker.frameCount, len(tracker.tracks))
}

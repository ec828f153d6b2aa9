// Package bytetrack is a two-stage ByteTrack tracker: high confidence detections are associated first,
// then remaining tracks get a chance with low confidence detections.
//
// Output is a pair of parallel lists (boxes in corner form and track identifiers) describing tracks
// updated in the last frame. Order and count are unrelated to the input detections.
package bytetrack

import (
	"fmt"

	"github.com/arthurkushman/go-hungarian"
	"github.com/numediart/vsensebox/internal/kalmanbox"
	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy picks pairs with the highest IoU first
	MatchingAlgorithmGreedy
)

type classTrack struct {
	*kalmanbox.Track
	class int
}

// Tracker is implementation of Multi-object tracker (MOT) called ByteTrack.
type Tracker struct {
	// Maximum number of frames an object can be missing before it is removed
	maxDisappeared int
	// Min IoU between track and detection to be considered the same object
	minIoU float64
	// High detection confidence threshold
	highThresh float64
	// Low detection confidence threshold
	lowThresh float64
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
	// Tracks in creation order
	tracks []*classTrack
	nextID int
}

// NewDefault creates a Tracker with default parameters.
func NewDefault() *Tracker {
	return New(30, 0.3, 0.5, 0.1, MatchingAlgorithmHungarian)
}

// New creates a new instance of Tracker with specified parameters.
func New(maxDisappeared int, minIoU, highThresh, lowThresh float64, algorithm MatchingAlgorithm) *Tracker {
	return &Tracker{
		maxDisappeared: maxDisappeared,
		minIoU:         minIoU,
		highThresh:     highThresh,
		lowThresh:      lowThresh,
		algorithm:      algorithm,
		tracks:         make([]*classTrack, 0),
		nextID:         1,
	}
}

// Update runs predict/update cycle for a single frame.
// Boxes are in origin+size form [x, y, w, h]; confidences and classes are aligned with boxes.
// Returns boxes (corner form) and identifiers of tracks matched or created in this frame.
func (bt *Tracker) Update(boxesXYWH [][4]float64, confidences []float64, classes []int) ([][4]float64, []int, error) {
	if len(boxesXYWH) != len(confidences) || len(boxesXYWH) != len(classes) {
		return nil, nil, fmt.Errorf("boxes, confidences and classes arrays must have the same length. Boxes: %d. Confidences: %d. Classes: %d",
			len(boxesXYWH), len(confidences), len(classes))
	}
	detections := make([][4]float64, len(boxesXYWH))
	for i, b := range boxesXYWH {
		detections[i] = [4]float64{b[0], b[1], b[0] + b[2], b[1] + b[3]}
	}

	// Predict next positions for all existing tracks via Kalman filter
	predicted := make([][4]float64, len(bt.tracks))
	for i, track := range bt.tracks {
		predicted[i] = track.Predict()
	}

	matchedTracks := make(map[int]struct{})
	matchedDetections := make(map[int]struct{})

	// 1. First stage: Match high confidence detections
	highDetectionIndices := make([]int, 0)
	for i, conf := range confidences {
		if conf >= bt.highThresh {
			highDetectionIndices = append(highDetectionIndices, i)
		}
	}
	allTrackIndices := make([]int, len(bt.tracks))
	for i := range bt.tracks {
		allTrackIndices[i] = i
	}
	err := bt.associate(allTrackIndices, highDetectionIndices, predicted, detections, confidences, classes, matchedTracks, matchedDetections)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error processing matches in stage 1")
	}

	// 2. Second stage: Match low confidence detections with remaining tracks
	unmatchedTrackIndices := make([]int, 0)
	for i := range bt.tracks {
		if _, found := matchedTracks[i]; !found {
			unmatchedTrackIndices = append(unmatchedTrackIndices, i)
		}
	}
	lowDetectionIndices := make([]int, 0)
	for i, conf := range confidences {
		if conf < bt.highThresh && conf >= bt.lowThresh {
			lowDetectionIndices = append(lowDetectionIndices, i)
		}
	}
	err = bt.associate(unmatchedTrackIndices, lowDetectionIndices, predicted, detections, confidences, classes, matchedTracks, matchedDetections)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error processing matches in stage 2")
	}

	// 3. Add new tracks for unmatched high confidence detections
	for _, detIdx := range highDetectionIndices {
		if _, found := matchedDetections[detIdx]; !found {
			bt.tracks = append(bt.tracks, &classTrack{
				Track: kalmanbox.New(detections[detIdx], bt.nextID, confidences[detIdx]),
				class: classes[detIdx],
			})
			bt.nextID++
		}
	}

	// 4. Collect output and remove tracks that have disappeared for too long
	boxes := make([][4]float64, 0, len(bt.tracks))
	ids := make([]int, 0, len(bt.tracks))
	kept := bt.tracks[:0]
	for _, track := range bt.tracks {
		if track.NoMatchTimes() == 0 {
			boxes = append(boxes, track.Box())
			ids = append(ids, track.ID())
		}
		if track.NoMatchTimes() >= bt.maxDisappeared {
			continue
		}
		kept = append(kept, track)
	}
	bt.tracks = kept
	return boxes, ids, nil
}

// Len returns number of alive tracks
func (bt *Tracker) Len() int {
	return len(bt.tracks)
}

// associate matches given tracks and detections of a single stage and updates matched tracks
func (bt *Tracker) associate(
	trackIndices []int,
	detectionIndices []int,
	predicted [][4]float64,
	detections [][4]float64,
	confidences []float64,
	classes []int,
	matchedTracks map[int]struct{},
	matchedDetections map[int]struct{},
) error {
	if len(trackIndices) == 0 || len(detectionIndices) == 0 {
		return nil
	}
	iouMatrix := bt.createIoUMatrix(trackIndices, detectionIndices, predicted, detections, classes)
	matches := bt.performMatching(iouMatrix)
	for _, match := range matches {
		if iouMatrix[match[0]][match[1]] < bt.minIoU {
			continue
		}
		trackIdx := trackIndices[match[0]]
		detIdx := detectionIndices[match[1]]
		track := bt.tracks[trackIdx]
		err := track.Update(detections[detIdx], confidences[detIdx])
		if err != nil {
			return fmt.Errorf("failed to update track %d: %w", track.ID(), err)
		}
		matchedTracks[trackIdx] = struct{}{}
		matchedDetections[detIdx] = struct{}{}
	}
	return nil
}

// createIoUMatrix is helper function to create IoU matrix: rows = tracks, columns = detections.
// Pairs of different classes get zero IoU.
func (bt *Tracker) createIoUMatrix(trackIndices, detectionIndices []int, predicted, detections [][4]float64, classes []int) [][]float64 {
	iouMatrix := make([][]float64, len(trackIndices))
	for i, trackIdx := range trackIndices {
		row := make([]float64, len(detectionIndices))
		for j, detIdx := range detectionIndices {
			if bt.tracks[trackIdx].class != classes[detIdx] {
				continue
			}
			row[j] = iou(predicted[trackIdx], detections[detIdx])
		}
		iouMatrix[i] = row
	}
	return iouMatrix
}

// performMatching returns pairs of {row, column} of the IoU matrix
func (bt *Tracker) performMatching(iouMatrix [][]float64) [][2]int {
	switch bt.algorithm {
	case MatchingAlgorithmGreedy:
		return bt.performGreedyMatching(iouMatrix)
	default:
		return bt.performHungarianMatching(iouMatrix)
	}
}

func (bt *Tracker) performHungarianMatching(iouMatrix [][]float64) [][2]int {
	numTracks := len(iouMatrix)
	numDetections := len(iouMatrix[0])
	// Rectangular matrix - pad to make it square. Padding is done with 0.0 values (lowest IoU)
	paddedSize := max(numTracks, numDetections)
	paddedMatrix := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		paddedMatrix[i] = make([]float64, paddedSize)
		if i < numTracks {
			copy(paddedMatrix[i], iouMatrix[i])
		}
	}
	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0)
	for trackIndex, rowMap := range assignmentsMap {
		for detectionIndex := range rowMap {
			if trackIndex < numTracks && detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
		}
	}
	return matches
}

// performGreedyMatching takes pairs with the highest IoU first
func (bt *Tracker) performGreedyMatching(iouMatrix [][]float64) [][2]int {
	candidates := make(pairHeap, 0)
	for i := range iouMatrix {
		for j, iouValue := range iouMatrix[i] {
			if iouValue >= bt.minIoU {
				candidates.Push(candidatePair{trackIdx: i, detectionIdx: j, cost: 1 - iouValue})
			}
		}
	}
	usedTracks := make(map[int]struct{})
	usedDetections := make(map[int]struct{})
	matches := make([][2]int, 0)
	for candidates.Len() > 0 {
		pair := candidates.Pop()
		if _, ok := usedTracks[pair.trackIdx]; ok {
			continue
		}
		if _, ok := usedDetections[pair.detectionIdx]; ok {
			continue
		}
		usedTracks[pair.trackIdx] = struct{}{}
		usedDetections[pair.detectionIdx] = struct{}{}
		matches = append(matches, [2]int{pair.trackIdx, pair.detectionIdx})
	}
	return matches
}

func iou(a, b [4]float64) float64 {
	xx1 := max(a[0], b[0])
	yy1 := max(a[1], b[1])
	xx2 := min(a[2], b[2])
	yy2 := min(a[3], b[3])
	interArea := max(0.0, xx2-xx1) * max(0.0, yy2-yy1)
	if interArea == 0 {
		return 0
	}
	unionArea := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - interArea
	return interArea / unionArea
}

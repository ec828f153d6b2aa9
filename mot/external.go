package mot

import (
	"math"

	"github.com/numediart/vsensebox/internal/bytetrack"
	sorttracker "github.com/numediart/vsensebox/internal/sort"
	"github.com/pkg/errors"
)

// SORTAdapter wraps vendored SORT tracker. Its native output rows are mapped back onto
// detection order with ReconcileSORT.
type SORTAdapter struct {
	tracker   *sorttracker.Tracker
	maxSpread float64
}

// NewSORTAdapter creates SORT tracking session. Negative maxSpread means DefaultSORTSpread.
func NewSORTAdapter(maxAge, minHits int, iouThreshold float64, maxSpread float64) *SORTAdapter {
	if maxSpread < 0 {
		maxSpread = DefaultSORTSpread
	}
	return &SORTAdapter{
		tracker:   sorttracker.New(maxAge, minHits, iouThreshold),
		maxSpread: maxSpread,
	}
}

// Update returns one identifier per detection; NoID for detections SORT did not report
func (adapter *SORTAdapter) Update(detections []Detection) ([]int, error) {
	rows := make([][5]float64, len(detections))
	for i, det := range detections {
		rows[i] = [5]float64{det.Box[0], det.Box[1], det.Box[2], det.Box[3], det.Confidence}
	}
	tracked, err := adapter.tracker.Update(rows)
	if err != nil {
		return nil, errors.Wrap(err, "SORT update failed")
	}
	return ReconcileSORT(DetectionBoxes(detections), truncateRows(tracked), adapter.maxSpread), nil
}

// truncateRows truncates SORT rows to whole pixels (and integer identifiers) in place
func truncateRows(rows [][]float64) [][]float64 {
	for _, row := range rows {
		for i := range row {
			row[i] = math.Trunc(row[i])
		}
	}
	return rows
}

// ByteTrackAdapter wraps vendored ByteTrack tracker. Its box and identifier lists are mapped back onto
// detection order with ReconcileLists.
type ByteTrackAdapter struct {
	tracker   *bytetrack.Tracker
	maxSpread float64
}

// NewByteTrackAdapter creates ByteTrack tracking session. Negative maxSpread means DefaultListSpread.
func NewByteTrackAdapter(maxDisappeared int, minIoU, highThresh, lowThresh float64, maxSpread float64) *ByteTrackAdapter {
	if maxSpread < 0 {
		maxSpread = DefaultListSpread
	}
	return &ByteTrackAdapter{
		tracker:   bytetrack.New(maxDisappeared, minIoU, highThresh, lowThresh, bytetrack.MatchingAlgorithmHungarian),
		maxSpread: maxSpread,
	}
}

// Update returns one identifier per detection; NoID for detections ByteTrack did not report
func (adapter *ByteTrackAdapter) Update(detections []Detection) ([]int, error) {
	boxesXYWH := make([][4]float64, len(detections))
	confidences := make([]float64, len(detections))
	classes := make([]int, len(detections))
	for i, det := range detections {
		rect := det.Box.ToRect()
		boxesXYWH[i] = [4]float64{rect.X, rect.Y, rect.Width, rect.Height}
		confidences[i] = det.Confidence
		classes[i] = det.Class
	}
	trackedBoxes, trackedIDs, err := adapter.tracker.Update(boxesXYWH, confidences, classes)
	if err != nil {
		return nil, errors.Wrap(err, "ByteTrack update failed")
	}
	boxes := make([]Box, len(trackedBoxes))
	for i := range trackedBoxes {
		boxes[i] = Box(trackedBoxes[i])
	}
	return ReconcileLists(DetectionBoxes(detections), boxes, trackedIDs, adapter.maxSpread), nil
}

// ExternalTracker is any tracker producing its own list of tracked boxes (e.g. DeepSORT behind RPC).
// Order and count of the output are not required to follow the input.
type ExternalTracker interface {
	Track(detections []Detection) ([]TrackedBox, error)
}

// ExternalAdapter turns ExternalTracker into Tracker by reconciling its output with detection order
type ExternalAdapter struct {
	source    ExternalTracker
	maxSpread float64
}

// NewExternalAdapter wraps external tracker. Negative maxSpread means DefaultListSpread.
func NewExternalAdapter(source ExternalTracker, maxSpread float64) *ExternalAdapter {
	if maxSpread < 0 {
		maxSpread = DefaultListSpread
	}
	return &ExternalAdapter{
		source:    source,
		maxSpread: maxSpread,
	}
}

// Update returns one identifier per detection; NoID for detections the external tracker did not report
func (adapter *ExternalAdapter) Update(detections []Detection) ([]int, error) {
	tracked, err := adapter.source.Track(detections)
	if err != nil {
		return nil, errors.Wrap(err, "external tracker failed")
	}
	return Reconcile(DetectionBoxes(detections), tracked, adapter.maxSpread), nil
}

// MaxSpread returns reconciliation distance
func (adapter *SORTAdapter) MaxSpread() float64 {
	return adapter.maxSpread
}

// MaxSpread returns reconciliation distance
func (adapter *ByteTrackAdapter) MaxSpread() float64 {
	return adapter.maxSpread
}

// MaxSpread returns reconciliation distance
func (adapter *ExternalAdapter) MaxSpread() float64 {
	return adapter.maxSpread
}

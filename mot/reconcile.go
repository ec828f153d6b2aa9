package mot

import (
	"math"
)

const (
	// DefaultSORTSpread is reconciliation distance used for SORT output
	DefaultSORTSpread = 10.0
	// DefaultListSpread is reconciliation distance used for box/ID list output
	DefaultListSpread = 128.0
)

// TrackedBox is a single output record of an external tracker
type TrackedBox struct {
	Box Box
	ID  int
}

// Reconcile maps external tracker output back onto detection order.
// Every tracked box is assigned to the detection with the smallest Chebyshev distance if that distance
// is not greater than maxSpread. When several tracked boxes pick the same detection the last one wins.
// Detections without any tracked box get NoID.
func Reconcile(detections []Box, tracked []TrackedBox, maxSpread float64) []int {
	ids := make([]int, len(detections))
	for i := range ids {
		ids[i] = NoID
	}
	for _, trackedBox := range tracked {
		detectionIdx := closestBoxIndex(detections, trackedBox.Box, maxSpread)
		if detectionIdx >= 0 {
			ids[detectionIdx] = trackedBox.ID
		}
	}
	return ids
}

// ReconcileLists is Reconcile for trackers returning boxes and identifiers as separate lists.
// Lists of different length are not usable: a warning is logged and an empty result is returned.
func ReconcileLists(detections []Box, boxes []Box, ids []int, maxSpread float64) []int {
	if len(boxes) != len(ids) {
		Logger.WithField("boxes", len(boxes)).WithField("ids", len(ids)).Warn("track result is not valid: boxes and identifiers must have the same length")
		return []int{}
	}
	tracked := make([]TrackedBox, len(boxes))
	for i := range boxes {
		tracked[i] = TrackedBox{Box: boxes[i], ID: ids[i]}
	}
	return Reconcile(detections, tracked, maxSpread)
}

// ReconcileSORT is Reconcile for SORT native output: rows of [x1, y1, x2, y2, ..., id].
// Box is taken from the first four fields, identifier from the trailing one.
// Rows with less than five fields are skipped.
func ReconcileSORT(detections []Box, rows [][]float64, maxSpread float64) []int {
	tracked := make([]TrackedBox, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			Logger.WithField("row", i).WithField("fields", len(row)).Warn("SORT row is too short, skipping")
			continue
		}
		tracked = append(tracked, TrackedBox{
			Box: Box{row[0], row[1], row[2], row[3]},
			ID:  int(row[len(row)-1]),
		})
	}
	return Reconcile(detections, tracked, maxSpread)
}

// closestBoxIndex returns index of the detection closest to the tracked box by Chebyshev distance.
// First one wins on ties. Returns -1 if there are no detections or the closest one is farther than maxSpread.
func closestBoxIndex(detections []Box, tracked Box, maxSpread float64) int {
	minIdx := -1
	minSpread := math.Inf(1)
	for i := range detections {
		spread := ChebyshevDistance(tracked, detections[i])
		if spread < minSpread {
			minSpread = spread
			minIdx = i
		}
	}
	if minIdx < 0 || minSpread > maxSpread {
		return -1
	}
	return minIdx
}

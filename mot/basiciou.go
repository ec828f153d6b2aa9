package mot

import (
	"strings"
)

// DeviceCPU selects pairwise IoU computation
const DeviceCPU = "cpu"

// BasicIoUTracker associates detections of the current frame with same-class detections of
// the previous one by the highest IoU.
type BasicIoUTracker struct {
	// Boxes of the previous frame
	previousBoxes []Box
	// Classes aligned with previousBoxes
	previousClasses []int
	// Identifiers aligned with previousBoxes
	previousIDs []int
	// Min IoU for two boxes to be considered the same object
	minIoU float64
	// Use batched IoU matrix instead of pairwise computation
	batched   bool
	allocator IDAllocator
}

// NewDefaultBasicIoUTracker creates a default instance of BasicIoUTracker: minIoU = 0.3, CPU
func NewDefaultBasicIoUTracker(options ...TrackerOption) *BasicIoUTracker {
	return NewBasicIoUTracker(0.3, DeviceCPU, options...)
}

// NewBasicIoUTracker creates new instance of BasicIoUTracker.
// Any device other than "cpu" (e.g. GPU index "0") switches to batched IoU matrix computation.
func NewBasicIoUTracker(minIoU float64, device string, options ...TrackerOption) *BasicIoUTracker {
	settings := newTrackerSettings(options...)
	device = strings.ToLower(strings.TrimSpace(device))
	return &BasicIoUTracker{
		previousBoxes:   make([]Box, 0),
		previousClasses: make([]int, 0),
		previousIDs:     make([]int, 0),
		minIoU:          minIoU,
		batched:         device != "" && device != DeviceCPU,
		allocator:       settings.allocator,
	}
}

// Update assigns an identifier to every detection. Output has the same length and order as input.
// Only previous boxes of the same class are candidates. Resolution is greedy in input order.
func (tracker *BasicIoUTracker) Update(detections []Detection) ([]int, error) {
	tracker.allocator.Reset()

	currentBoxes := DetectionBoxes(detections)
	iouFn := func(i, j int) float64 {
		return IoU(currentBoxes[i], tracker.previousBoxes[j])
	}
	if tracker.batched && len(currentBoxes) > 0 && len(tracker.previousBoxes) > 0 {
		ious := IoUBatch(currentBoxes, tracker.previousBoxes)
		iouFn = func(i, j int) float64 {
			return ious.At(i, j)
		}
	}

	ids := make([]int, len(detections))
	reservedIDs := make(map[int]struct{})
	hanging := make([]int, 0)
	for i := range detections {
		previousIdx := tracker.findPrevious(i, detections[i].Class, iouFn)
		if previousIdx < 0 {
			hanging = append(hanging, i)
			continue
		}
		previousID := tracker.previousIDs[previousIdx]
		if _, ok := reservedIDs[previousID]; ok {
			hanging = append(hanging, i)
			continue
		}
		ids[i] = previousID
		reservedIDs[previousID] = struct{}{}
		tracker.allocator.MarkUsed(previousID)
	}

	for _, i := range hanging {
		ids[i] = tracker.allocator.Allocate()
	}
	if len(hanging) > 0 {
		Logger.WithField("tracker", "basiciou").Debugf("registered %d new tracks out of %d detections", len(hanging), len(detections))
	}

	tracker.previousBoxes = currentBoxes
	tracker.previousClasses = make([]int, len(detections))
	for i := range detections {
		tracker.previousClasses[i] = detections[i].Class
	}
	tracker.previousIDs = append(make([]int, 0, len(ids)), ids...)
	return ids, nil
}

// findPrevious returns index of the same-class previous box with the highest IoU,
// or -1 when the best IoU is below minIoU
func (tracker *BasicIoUTracker) findPrevious(current int, class int, iouFn func(i, j int) float64) int {
	maxIdx := -1
	maxIoU := -1.0
	for j := range tracker.previousBoxes {
		if tracker.previousClasses[j] != class {
			continue
		}
		iouValue := iouFn(current, j)
		if iouValue > maxIoU {
			maxIoU = iouValue
			maxIdx = j
		}
	}
	if maxIoU < tracker.minIoU {
		return -1
	}
	return maxIdx
}

// MinIoU returns IoU threshold
func (tracker *BasicIoUTracker) MinIoU() float64 {
	return tracker.minIoU
}

// Batched reports whether batched IoU matrix is used
func (tracker *BasicIoUTracker) Batched() bool {
	return tracker.batched
}

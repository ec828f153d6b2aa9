package mot

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ReferenceY is vertical position of the representative point of a bounding box
type ReferenceY uint16

const (
	// ReferenceTop uses the top edge (min Y) of the box
	ReferenceTop ReferenceY = iota
	// ReferenceCenter uses the vertical midpoint of the box
	ReferenceCenter
	// ReferenceBottom uses the bottom edge (max Y) of the box
	ReferenceBottom
)

func (ref ReferenceY) String() string {
	switch ref {
	case ReferenceCenter:
		return "center"
	case ReferenceBottom:
		return "bottom"
	default:
		return "top"
	}
}

// ParseReferenceY parses "top", "center" or "bottom" (case insensitive)
func ParseReferenceY(s string) (ReferenceY, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return ReferenceTop, nil
	case "center":
		return ReferenceCenter, nil
	case "bottom":
		return ReferenceBottom, nil
	}
	return ReferenceTop, errors.Errorf("unknown reference Y '%s'", s)
}

// CentroidTracker associates detections of the current frame with detections of the previous one
// by the nearest representative point. Classes and confidences are ignored.
type CentroidTracker struct {
	// Representative points of the previous frame
	previousPoints []Point
	// Identifiers aligned with previousPoints
	previousIDs []int
	// Max distance (in pixels) between previous and current point to be considered the same object
	maxSpread float64
	// Vertical reference of representative point
	referenceY ReferenceY
	allocator  IDAllocator
}

// NewCentroidTrackerDefault creates default instance of CentroidTracker: maxSpread = 64, bottom reference
func NewCentroidTrackerDefault(options ...TrackerOption) *CentroidTracker {
	return NewCentroidTracker(64.0, ReferenceBottom, options...)
}

// NewCentroidTracker creates new instance of CentroidTracker
func NewCentroidTracker(maxSpread float64, referenceY ReferenceY, options ...TrackerOption) *CentroidTracker {
	settings := newTrackerSettings(options...)
	return &CentroidTracker{
		previousPoints: make([]Point, 0),
		previousIDs:    make([]int, 0),
		maxSpread:      maxSpread,
		referenceY:     referenceY,
		allocator:      settings.allocator,
	}
}

// Update assigns an identifier to every detection. Output has the same length and order as input.
// Matching is greedy in input order: the first detection claiming a previous identifier gets it,
// later ones claiming the same identifier become new tracks.
func (tracker *CentroidTracker) Update(detections []Detection) ([]int, error) {
	tracker.allocator.Reset()

	currentPoints := make([]Point, len(detections))
	for i := range detections {
		currentPoints[i] = detections[i].Box.RefPoint(tracker.referenceY)
	}

	ids := make([]int, len(detections))
	// We need to prevent double reuse of previous identifiers
	reservedIDs := make(map[int]struct{})
	hanging := make([]int, 0)
	for i, point := range currentPoints {
		previousIdx := tracker.findPrevious(point)
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

	// Register unmatched detections as new objects
	for _, i := range hanging {
		ids[i] = tracker.allocator.Allocate()
	}
	if len(hanging) > 0 {
		Logger.WithField("tracker", "centroid").Debugf("registered %d new tracks out of %d detections", len(hanging), len(detections))
	}

	tracker.previousPoints = currentPoints
	tracker.previousIDs = append(make([]int, 0, len(ids)), ids...)
	return ids, nil
}

// findPrevious returns index of the closest previous point or -1 when it is farther than maxSpread
func (tracker *CentroidTracker) findPrevious(point Point) int {
	minIdx := -1
	minDistance := math.Inf(1)
	for i, previous := range tracker.previousPoints {
		dist := EuclideanDistance(point, previous)
		if dist < minDistance {
			minDistance = dist
			minIdx = i
		}
	}
	if minDistance > tracker.maxSpread {
		return -1
	}
	return minIdx
}

// MaxSpread returns distance threshold
func (tracker *CentroidTracker) MaxSpread() float64 {
	return tracker.maxSpread
}

// ReferenceY returns vertical reference of representative points
func (tracker *CentroidTracker) ReferenceY() ReferenceY {
	return tracker.referenceY
}

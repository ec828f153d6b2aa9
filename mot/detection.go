package mot

import (
	"github.com/pkg/errors"
)

// Detection is a single object localization result of a detector for a single frame
type Detection struct {
	Box        Box
	Confidence float64
	Class      int
}

// NewDetection creates new detection
func NewDetection(box Box, confidence float64, class int) Detection {
	return Detection{
		Box:        box,
		Confidence: confidence,
		Class:      class,
	}
}

// NewDetections zips parallel detector outputs into detections.
// Confidences and classes may be nil: then zero values are used.
func NewDetections(boxes [][]float64, confidences []float64, classes []int) ([]Detection, error) {
	if confidences != nil && len(confidences) != len(boxes) {
		return nil, errors.Errorf("boxes and confidences must have the same length. Boxes: %d. Confidences: %d", len(boxes), len(confidences))
	}
	if classes != nil && len(classes) != len(boxes) {
		return nil, errors.Errorf("boxes and classes must have the same length. Boxes: %d. Classes: %d", len(boxes), len(classes))
	}
	parsed, err := ParseBoxes(boxes)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse detections")
	}
	detections := make([]Detection, len(parsed))
	for i := range parsed {
		detections[i].Box = parsed[i]
		if confidences != nil {
			detections[i].Confidence = confidences[i]
		}
		if classes != nil {
			detections[i].Class = classes[i]
		}
	}
	return detections, nil
}

// DetectionBoxes extracts boxes of detections preserving order
func DetectionBoxes(detections []Detection) []Box {
	boxes := make([]Box, len(detections))
	for i := range detections {
		boxes[i] = detections[i].Box
	}
	return boxes
}

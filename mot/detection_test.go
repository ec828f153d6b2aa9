package mot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDetections(t *testing.T) {
	detections, err := NewDetections([][]float64{{0, 0, 10, 10}, {5, 5, 15, 15}}, []float64{0.9, 0.4}, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, []Detection{
		{Box: Box{0, 0, 10, 10}, Confidence: 0.9, Class: 1},
		{Box: Box{5, 5, 15, 15}, Confidence: 0.4, Class: 2},
	}, detections)
	require.Equal(t, []Box{{0, 0, 10, 10}, {5, 5, 15, 15}}, DetectionBoxes(detections))

	// Confidences and classes are optional
	detections, err = NewDetections([][]float64{{0, 0, 10, 10}}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, detections[0].Class)

	_, err = NewDetections([][]float64{{0, 0, 10, 10}}, []float64{0.9, 0.8}, nil)
	require.Error(t, err)
	_, err = NewDetections([][]float64{{0, 0, 10, 10}}, nil, []int{})
	require.Error(t, err)
	_, err = NewDetections([][]float64{{0, 0, 10}}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidBox)
}

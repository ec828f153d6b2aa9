package mot

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// IoUBatch calculates pairwise IoU matrix: rows are boxes from a, columns are boxes from b.
// Values are equal to IoU(a[i], b[j]). Returns nil when either list is empty.
func IoUBatch(a, b []Box) *mat.Dense {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	// Coordinates laid out as N x 4 matrices, one box per row
	aMat := boxesToDense(a)
	bMat := boxesToDense(b)

	aAreas := make([]float64, len(a))
	for i := range a {
		aAreas[i] = (aMat.At(i, 2) - aMat.At(i, 0) + 1) * (aMat.At(i, 3) - aMat.At(i, 1) + 1)
	}
	bAreas := make([]float64, len(b))
	for j := range b {
		bAreas[j] = (bMat.At(j, 2) - bMat.At(j, 0) + 1) * (bMat.At(j, 3) - bMat.At(j, 1) + 1)
	}

	ious := mat.NewDense(len(a), len(b), nil)
	ious.Apply(func(i, j int, _ float64) float64 {
		xA := math.Max(aMat.At(i, 0), bMat.At(j, 0))
		yA := math.Max(aMat.At(i, 1), bMat.At(j, 1))
		xB := math.Min(aMat.At(i, 2), bMat.At(j, 2))
		yB := math.Min(aMat.At(i, 3), bMat.At(j, 3))
		interArea := math.Max(0, xB-xA+1) * math.Max(0, yB-yA+1)
		if interArea == 0 {
			return 0.0
		}
		return interArea / (aAreas[i] + bAreas[j] - interArea)
	}, ious)
	return ious
}

func boxesToDense(boxes []Box) *mat.Dense {
	data := make([]float64, 0, len(boxes)*4)
	for _, box := range boxes {
		data = append(data, box[:]...)
	}
	return mat.NewDense(len(boxes), 4, data)
}

package mot

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidBox is returned when raw box data does not hold exactly four coordinates
var ErrInvalidBox = errors.New("box must have exactly 4 coordinates")

// Box is a bounding box in corner form: top-left (X1, Y1) and bottom-right (X2, Y2).
// X1 <= X2 and Y1 <= Y2 by convention, but it is not enforced.
type Box [4]float64

// NewBox creates a corner-form box
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{x1, y1, x2, y2}
}

// NewBoxFrom creates a corner-form box from image.Rectangle
func NewBoxFrom(rect image.Rectangle) Box {
	return Box{
		float64(rect.Min.X),
		float64(rect.Min.Y),
		float64(rect.Max.X),
		float64(rect.Max.Y),
	}
}

// ParseBox converts raw coordinates [x1, y1, x2, y2] into a Box
func ParseBox(raw []float64) (Box, error) {
	if len(raw) != 4 {
		return Box{}, errors.Wrapf(ErrInvalidBox, "got %d coordinates", len(raw))
	}
	return Box{raw[0], raw[1], raw[2], raw[3]}, nil
}

// ParseBoxes converts a list of raw coordinates into boxes. Any malformed entry fails the whole list.
func ParseBoxes(raw [][]float64) ([]Box, error) {
	boxes := make([]Box, len(raw))
	for i := range raw {
		box, err := ParseBox(raw[i])
		if err != nil {
			return nil, errors.Wrapf(err, "box #%d", i)
		}
		boxes[i] = box
	}
	return boxes, nil
}

func (b Box) X1() float64 { return b[0] }
func (b Box) Y1() float64 { return b[1] }
func (b Box) X2() float64 { return b[2] }
func (b Box) Y2() float64 { return b[3] }

// ToRect converts box to origin+size form
func (b Box) ToRect() Rect {
	return Rect{
		X:      b[0],
		Y:      b[1],
		Width:  b[2] - b[0],
		Height: b[3] - b[1],
	}
}

// RefPoint returns representative point of the box.
// X is the horizontal midpoint, Y depends on the vertical reference.
// Midpoints are truncated to whole pixels, edges are taken as is.
func (b Box) RefPoint(ref ReferenceY) Point {
	x := math.Trunc((b[0] + b[2]) / 2.0)
	var y float64
	switch ref {
	case ReferenceCenter:
		y = math.Trunc((b[1] + b[3]) / 2.0)
	case ReferenceBottom:
		y = math.Max(b[1], b[3])
	default:
		y = math.Min(b[1], b[3])
	}
	return Point{X: x, Y: y}
}

// Rect is a bounding box in origin+size form
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates origin+size rectangle
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// ToBox converts rectangle to corner form
func (r Rect) ToBox() Box {
	return Box{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// EuclideanDistance returns straight-line distance between two points
func EuclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

// IoU calculates Intersection over Union between two corner-form boxes.
// Coordinates are treated as inclusive pixel indices, so a box always covers at least one pixel:
// area is (x2-x1+1)*(y2-y1+1).
func IoU(a, b Box) float64 {
	xA := math.Max(a[0], b[0])
	yA := math.Max(a[1], b[1])
	xB := math.Min(a[2], b[2])
	yB := math.Min(a[3], b[3])

	interArea := math.Max(0, xB-xA+1) * math.Max(0, yB-yA+1)
	if interArea == 0 {
		return 0.0
	}

	aArea := (a[2] - a[0] + 1) * (a[3] - a[1] + 1)
	bArea := (b[2] - b[0] + 1) * (b[3] - b[1] + 1)

	return interArea / (aArea + bArea - interArea)
}

// ChebyshevDistance returns the largest absolute difference over the four box coordinates
func ChebyshevDistance(a, b Box) float64 {
	maxDiff := 0.0
	for i := 0; i < 4; i++ {
		diff := math.Abs(a[i] - b[i])
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}

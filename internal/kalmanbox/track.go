// Package kalmanbox provides a bounding box track smoothed by 8-D Kalman filter.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
package kalmanbox

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Track is a single object followed by Kalman filter. Boxes are in corner form [x1, y1, x2, y2].
type Track struct {
	id           int
	currentBox   [4]float64
	predictedBox [4]float64
	hits         int
	hitStreak    int
	age          int
	noMatchTimes int
	score        float64
	tracker      *kalman_filter.KalmanBBox
}

// NewWithTime creates a new Track with specified time step.
func NewWithTime(box [4]float64, id int, score float64, dt float64) *Track {
	cx, cy, w, h := toCXCYWH(box)

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(cx, cy, w, h),
	)

	return &Track{
		id:           id,
		currentBox:   box,
		predictedBox: box,
		score:        score,
		tracker:      kf,
	}
}

// New creates a new Track with default time step of 1.0.
func New(box [4]float64, id int, score float64) *Track {
	return NewWithTime(box, id, score, 1.0)
}

// ID returns track identifier
func (track *Track) ID() int {
	return track.id
}

// SetID sets track identifier
func (track *Track) SetID(id int) {
	track.id = id
}

// Box returns current (smoothed) box
func (track *Track) Box() [4]float64 {
	return track.currentBox
}

// PredictedBox returns box predicted by the last Predict call
func (track *Track) PredictedBox() [4]float64 {
	return track.predictedBox
}

// Score returns confidence of the last matched detection
func (track *Track) Score() float64 {
	return track.score
}

// Hits returns number of updates after the initial detection
func (track *Track) Hits() int {
	return track.hits
}

// HitStreak returns number of consecutive matched frames
func (track *Track) HitStreak() int {
	return track.hitStreak
}

// Age returns number of predictions made
func (track *Track) Age() int {
	return track.age
}

// NoMatchTimes returns number of consecutive predictions without update
func (track *Track) NoMatchTimes() int {
	return track.noMatchTimes
}

// Predict executes Kalman filter prediction step and returns predicted box
func (track *Track) Predict() [4]float64 {
	track.tracker.Predict()
	cx, cy, w, h := track.tracker.GetState()
	track.predictedBox = fromCXCYWH(cx, cy, w, h)
	track.age++
	if track.noMatchTimes > 0 {
		track.hitStreak = 0
	}
	track.noMatchTimes++
	return track.predictedBox
}

// Update executes Kalman filter update step with the matched box
func (track *Track) Update(box [4]float64, score float64) error {
	cx, cy, w, h := toCXCYWH(box)
	err := track.tracker.Update(cx, cy, w, h)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	cx, cy, w, h = track.tracker.GetState()
	track.currentBox = fromCXCYWH(cx, cy, w, h)
	track.score = score
	track.hits++
	track.hitStreak++
	track.noMatchTimes = 0
	return nil
}

// GetVelocity returns current velocity estimates (vx, vy, vw, vh) from Kalman filter
func (track *Track) GetVelocity() (float64, float64, float64, float64) {
	return track.tracker.GetVelocity()
}

func toCXCYWH(box [4]float64) (float64, float64, float64, float64) {
	w := box[2] - box[0]
	h := box[3] - box[1]
	return box[0] + w/2.0, box[1] + h/2.0, w, h
}

func fromCXCYWH(cx, cy, w, h float64) [4]float64 {
	return [4]float64{cx - w/2.0, cy - h/2.0, cx + w/2.0, cy + h/2.0}
}

package mot

import (
	"strings"

	"github.com/pkg/errors"
)

// NoID marks a detection which could not be matched to any track
const NoID = -1

// ErrUnknownKind is returned when tracker name can't be resolved
var ErrUnknownKind = errors.New("unknown tracker kind")

// Tracker is the common interface of all trackers: one identifier per detection, same order.
// Calls on a single instance must be made sequentially in frame order.
type Tracker interface {
	Update(detections []Detection) ([]int, error)
}

// Kind is tracker variant
type Kind uint16

const (
	// KindCentroid is CentroidTracker
	KindCentroid Kind = iota
	// KindBasicIoU is BasicIoUTracker
	KindBasicIoU
	// KindSORT is SORTAdapter over vendored SORT tracker
	KindSORT
	// KindByteTrack is ByteTrackAdapter over vendored ByteTrack tracker
	KindByteTrack
)

func (kind Kind) String() string {
	switch kind {
	case KindCentroid:
		return "centroid"
	case KindBasicIoU:
		return "basiciou"
	case KindSORT:
		return "sort"
	case KindByteTrack:
		return "bytetrack"
	}
	return "unknown"
}

// ParseKind resolves tracker name (case insensitive)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "centroid":
		return KindCentroid, nil
	case "basiciou":
		return KindBasicIoU, nil
	case "sort":
		return KindSORT, nil
	case "bytetrack":
		return KindByteTrack, nil
	}
	return KindCentroid, errors.Wrapf(ErrUnknownKind, "'%s'", s)
}

// Options holds parameters for every tracker variant. Only fields of the selected Kind are used.
type Options struct {
	Kind Kind
	// Centroid
	MaxSpread  float64
	ReferenceY ReferenceY
	// BasicIoU
	MinIoU float64
	Device string
	// SORT
	MaxAge       int
	MinHits      int
	IoUThreshold float64
	// ByteTrack
	HighThresh     float64
	LowThresh      float64
	MaxDisappeared int
	// Reconciliation distance for external trackers. Negative means adapter default, zero means exact match.
	ReconcileSpread float64
	Allocator       AllocatorKind
}

// DefaultOptions returns defaults for every variant with centroid selected
func DefaultOptions() Options {
	return Options{
		Kind:            KindCentroid,
		MaxSpread:       64.0,
		ReferenceY:      ReferenceBottom,
		MinIoU:          0.3,
		Device:          DeviceCPU,
		MaxAge:          1,
		MinHits:         3,
		IoUThreshold:    0.3,
		HighThresh:      0.5,
		LowThresh:       0.1,
		MaxDisappeared:  30,
		ReconcileSpread: -1,
		Allocator:       AllocatorPerCall,
	}
}

// New creates tracker of the selected kind. The variant is resolved once here, not per call.
func New(options Options) (Tracker, error) {
	allocator := WithIDAllocator(NewAllocator(options.Allocator))
	switch options.Kind {
	case KindCentroid:
		return NewCentroidTracker(options.MaxSpread, options.ReferenceY, allocator), nil
	case KindBasicIoU:
		return NewBasicIoUTracker(options.MinIoU, options.Device, allocator), nil
	case KindSORT:
		return NewSORTAdapter(options.MaxAge, options.MinHits, options.IoUThreshold, options.ReconcileSpread), nil
	case KindByteTrack:
		return NewByteTrackAdapter(options.MaxDisappeared, options.IoUThreshold, options.HighThresh, options.LowThresh, options.ReconcileSpread), nil
	}
	return nil, errors.Wrapf(ErrUnknownKind, "kind %d", options.Kind)
}

// TrackerOption configures self-contained trackers
type TrackerOption func(*trackerSettings)

type trackerSettings struct {
	allocator IDAllocator
}

func newTrackerSettings(options ...TrackerOption) trackerSettings {
	settings := trackerSettings{}
	for _, option := range options {
		option(&settings)
	}
	if settings.allocator == nil {
		settings.allocator = NewPerCallAllocator()
	}
	return settings
}

// WithIDAllocator sets identifier allocation strategy. Default is PerCallAllocator.
func WithIDAllocator(allocator IDAllocator) TrackerOption {
	return func(settings *trackerSettings) {
		settings.allocator = allocator
	}
}

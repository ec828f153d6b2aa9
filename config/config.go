// Package config loads tracker configuration documents (YAML or JSON) and turns them into mot.Options.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/numediart/vsensebox/mot"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// maxFileSize is the largest config file accepted by Load
const maxFileSize = 1 * 1024 * 1024

// TrackerConfig is the root configuration document.
// Only fields of the selected tracker are used, the rest keep their defaults.
type TrackerConfig struct {
	Tracker string `yaml:"tracker" json:"tracker"`

	// Centroid
	MaxSpread float64 `yaml:"max_spread" json:"max_spread"`
	PrefY     string  `yaml:"pref_y" json:"pref_y"`

	// BasicIoU
	MinIoU float64 `yaml:"min_iou" json:"min_iou"`
	Device string  `yaml:"device" json:"device"`

	// SORT
	MaxAge       int     `yaml:"max_age" json:"max_age"`
	MinHits      int     `yaml:"min_hits" json:"min_hits"`
	IoUThreshold float64 `yaml:"iou_threshold" json:"iou_threshold"`

	// ByteTrack
	HighThresh     float64 `yaml:"high_thresh" json:"high_thresh"`
	LowThresh      float64 `yaml:"low_thresh" json:"low_thresh"`
	MaxDisappeared int     `yaml:"max_disappeared" json:"max_disappeared"`

	// Distance used to map external tracker output back to detections.
	// Negative (the default) means tracker default: 10 for sort, 128 for bytetrack. Zero means exact match only.
	ReconcileSpread float64 `yaml:"reconcile_spread" json:"reconcile_spread"`
	// per_call | monotonic
	Allocator string `yaml:"allocator" json:"allocator"`
}

// Default returns configuration of the centroid tracker with default values for every variant
func Default() *TrackerConfig {
	options := mot.DefaultOptions()
	return &TrackerConfig{
		Tracker:         options.Kind.String(),
		MaxSpread:       options.MaxSpread,
		PrefY:           options.ReferenceY.String(),
		MinIoU:          options.MinIoU,
		Device:          options.Device,
		MaxAge:          options.MaxAge,
		MinHits:         options.MinHits,
		IoUThreshold:    options.IoUThreshold,
		HighThresh:      options.HighThresh,
		LowThresh:       options.LowThresh,
		MaxDisappeared:  options.MaxDisappeared,
		ReconcileSpread: options.ReconcileSpread,
		Allocator:       options.Allocator.String(),
	}
}

// Load reads configuration from .yaml/.yml or .json file.
// Fields omitted from the file retain their default values, so partial configs are safe.
func Load(path string) (*TrackerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, errors.Errorf("config file must have .yaml, .yml or .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := Default()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks that names resolve and numeric parameters are in range
func (cfg *TrackerConfig) Validate() error {
	if _, err := cfg.Options(); err != nil {
		return err
	}
	if cfg.MaxSpread < 0 {
		return errors.Errorf("max_spread must be non-negative, got %f", cfg.MaxSpread)
	}
	for name, value := range map[string]float64{
		"min_iou":       cfg.MinIoU,
		"iou_threshold": cfg.IoUThreshold,
		"high_thresh":   cfg.HighThresh,
		"low_thresh":    cfg.LowThresh,
	} {
		if value < 0 || value > 1 {
			return errors.Errorf("%s must be in [0, 1], got %f", name, value)
		}
	}
	if cfg.LowThresh > cfg.HighThresh {
		return errors.Errorf("low_thresh (%f) must not be greater than high_thresh (%f)", cfg.LowThresh, cfg.HighThresh)
	}
	if cfg.MaxAge < 0 || cfg.MinHits < 0 || cfg.MaxDisappeared < 0 {
		return errors.New("max_age, min_hits and max_disappeared must be non-negative")
	}
	return nil
}

// Options converts configuration into tracker options
func (cfg *TrackerConfig) Options() (mot.Options, error) {
	kind, err := mot.ParseKind(cfg.Tracker)
	if err != nil {
		return mot.Options{}, errors.Wrap(err, "tracker")
	}
	referenceY, err := mot.ParseReferenceY(cfg.PrefY)
	if err != nil {
		return mot.Options{}, errors.Wrap(err, "pref_y")
	}
	allocator, err := mot.ParseAllocatorKind(cfg.Allocator)
	if err != nil {
		return mot.Options{}, errors.Wrap(err, "allocator")
	}
	return mot.Options{
		Kind:            kind,
		MaxSpread:       cfg.MaxSpread,
		ReferenceY:      referenceY,
		MinIoU:          cfg.MinIoU,
		Device:          cfg.Device,
		MaxAge:          cfg.MaxAge,
		MinHits:         cfg.MinHits,
		IoUThreshold:    cfg.IoUThreshold,
		HighThresh:      cfg.HighThresh,
		LowThresh:       cfg.LowThresh,
		MaxDisappeared:  cfg.MaxDisappeared,
		ReconcileSpread: cfg.ReconcileSpread,
		Allocator:       allocator,
	}, nil
}

// NewTracker creates tracker described by configuration
func (cfg *TrackerConfig) NewTracker() (mot.Tracker, error) {
	options, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return mot.New(options)
}

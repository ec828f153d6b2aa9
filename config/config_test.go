package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/numediart/vsensebox/mot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	options, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, mot.DefaultOptions(), options)
}

func TestLoadYAMLPartial(t *testing.T) {
	path := writeFile(t, "tracker.yaml", `
tracker: basiciou
min_iou: 0.45
device: "0"
allocator: monotonic
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "basiciou", cfg.Tracker)
	assert.Equal(t, 0.45, cfg.MinIoU)
	assert.Equal(t, "0", cfg.Device)
	// Omitted fields keep defaults
	assert.Equal(t, 64.0, cfg.MaxSpread)
	assert.Equal(t, "bottom", cfg.PrefY)

	options, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, mot.KindBasicIoU, options.Kind)
	assert.Equal(t, mot.AllocatorMonotonic, options.Allocator)

	tracker, err := cfg.NewTracker()
	require.NoError(t, err)
	assert.IsType(t, &mot.BasicIoUTracker{}, tracker)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "tracker.json", `{"tracker": "sort", "max_age": 3, "min_hits": 2, "iou_threshold": 0.25, "reconcile_spread": 15}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	options, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, mot.KindSORT, options.Kind)
	assert.Equal(t, 3, options.MaxAge)
	assert.Equal(t, 2, options.MinHits)
	assert.Equal(t, 0.25, options.IoUThreshold)
	assert.Equal(t, 15.0, options.ReconcileSpread)
}

func TestReconcileSpreadZeroIsKept(t *testing.T) {
	cfg := Default()
	assert.Less(t, cfg.ReconcileSpread, 0.0)

	cfg, err := Load(writeFile(t, "tracker.yaml", "tracker: sort\nreconcile_spread: 0\n"))
	require.NoError(t, err)
	options, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, 0.0, options.ReconcileSpread)

	tracker, err := cfg.NewTracker()
	require.NoError(t, err)
	adapter, ok := tracker.(*mot.SORTAdapter)
	require.True(t, ok)
	assert.Equal(t, 0.0, adapter.MaxSpread())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "tracker.toml", "tracker = 'sort'"))
	assert.Error(t, err, "extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "missing file")

	_, err = Load(writeFile(t, "bad.json", "{tracker"))
	assert.Error(t, err, "broken json")

	_, err = Load(writeFile(t, "unknown.yml", "tracker: deepsort"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mot.ErrUnknownKind)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(cfg *TrackerConfig){
		"pref_y":     func(cfg *TrackerConfig) { cfg.PrefY = "middle" },
		"allocator":  func(cfg *TrackerConfig) { cfg.Allocator = "random" },
		"max_spread": func(cfg *TrackerConfig) { cfg.MaxSpread = -1 },
		"min_iou":    func(cfg *TrackerConfig) { cfg.MinIoU = 1.5 },
		"thresholds": func(cfg *TrackerConfig) { cfg.LowThresh = 0.7 },
		"max_age":    func(cfg *TrackerConfig) { cfg.MaxAge = -1 },
	}
	for name, breakIt := range cases {
		cfg := Default()
		breakIt(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/numediart/vsensebox/config"
	"github.com/numediart/vsensebox/mot"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestApp(tracker string) *app {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Default()
	cfg.Tracker = tracker
	return newApp(cfg, log)
}

func itemIDs(t *testing.T, line string) []int64 {
	t.Helper()
	ids := make([]int64, 0)
	for _, id := range gjson.Get(line, "items.#.id").Array() {
		ids = append(ids, id.Int())
	}
	return ids
}

func TestProcessLineCentroid(t *testing.T) {
	application := newTestApp("centroid")

	line, err := application.processLine([]byte(`{"camera":{"id":1},"items":[{"bbox":[0,0,10,10],"prob":0.9,"class":0},{"bbox":[300,300,10,10],"prob":0.8,"class":2}]}`))
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, itemIDs(t, line))
	// Other fields are kept
	require.Equal(t, int64(2), gjson.Get(line, "items.1.class").Int())

	line, err = application.processLine([]byte(`{"camera":{"id":1},"items":[{"bbox":[301,302,10,10],"prob":0.8,"class":2}]}`))
	require.NoError(t, err)
	require.Equal(t, []int64{1}, itemIDs(t, line))
}

func TestProcessLineCamerasAreIndependent(t *testing.T) {
	application := newTestApp("centroid")
	_, err := application.processLine([]byte(`{"camera":{"id":1},"items":[{"bbox":[0,0,10,10]},{"bbox":[300,300,10,10]}]}`))
	require.NoError(t, err)

	line, err := application.processLine([]byte(`{"camera":{"id":2},"items":[{"bbox":[300,300,10,10]}]}`))
	require.NoError(t, err)
	require.Equal(t, []int64{0}, itemIDs(t, line))
	require.Len(t, application.sessions, 2)
	require.NotEqual(t, application.sessions[1].id, application.sessions[2].id)
}

func TestSessionIDTagsLogs(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	cfg := config.Default()
	application := newApp(cfg, log)

	_, err := application.processLine([]byte(`{"camera":{"id":3},"items":[{"bbox":[0,0,10,10]}]}`))
	require.NoError(t, err)
	_, err = application.processLine([]byte(`{"camera":{"id":3},"items":[{"bbox":[1,0,10,10]}]}`))
	require.NoError(t, err)

	sessionID := application.sessions[3].id
	require.NotEqual(t, uuid.Nil, sessionID)
	// Session creation and every tracked line of the camera carry the same session id
	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	for _, entry := range entries {
		require.Equal(t, sessionID, entry.Data["session"], entry.Message)
		require.Equal(t, int64(3), entry.Data["camera"], entry.Message)
	}
}

func TestProcessLineErrors(t *testing.T) {
	application := newTestApp("centroid")
	_, err := application.processLine([]byte(`{"camera":`))
	require.Error(t, err)

	_, err = application.processLine([]byte(`{"camera":{"id":1},"items":[{"bbox":[0,0,10]}]}`))
	require.ErrorIs(t, err, mot.ErrInvalidBox)

	for _, bad := range []string{
		`{"camera":{"id":1},"items":[{"bbox":[0,"0",10,10]}]}`,
		`{"camera":{"id":1},"items":[{"bbox":[0,0,null,10]}]}`,
		`{"camera":{"id":1},"items":[{"bbox":[0,0,10,{"w":10}]}]}`,
	} {
		_, err = application.processLine([]byte(bad))
		require.ErrorIs(t, err, mot.ErrInvalidBox, bad)
	}

	application = newTestApp("nope")
	_, err = application.processLine([]byte(`{"camera":{"id":1},"items":[]}`))
	require.Error(t, err)
}

func TestRunSkipsBadLines(t *testing.T) {
	application := newTestApp("bytetrack")
	input := strings.Join([]string{
		`{"camera":{"id":5},"items":[{"bbox":[10,20,30,40],"prob":0.9,"class":0}]}`,
		`not json`,
		`{"camera":{"id":5},"items":[]}`,
	}, "\n")
	out := &bytes.Buffer{}
	require.NoError(t, application.run(strings.NewReader(input), out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, []int64{1}, itemIDs(t, lines[0]))
	require.Empty(t, itemIDs(t, lines[1]))
}

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/numediart/vsensebox/config"
	"github.com/numediart/vsensebox/mot"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var configPath = flag.String("config", "", "Path to tracker configuration (.yaml, .yml or .json). Defaults are used when empty")
var trackerName = flag.String("tracker", "", "Override tracker kind: centroid, basiciou, sort or bytetrack")
var logLevel = flag.String("log", "info", "Log level")

// session is a tracker bound to a single camera
type session struct {
	id      uuid.UUID
	tracker mot.Tracker
}

// app keeps one session per camera
type app struct {
	cfg      *config.TrackerConfig
	sessions map[int64]*session
	log      *logrus.Logger
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.WithError(err).Fatal("Can't parse log level")
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	mot.SetLogger(log)

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("Can't load configuration")
		}
	}
	if *trackerName != "" {
		cfg.Tracker = *trackerName
		if err = cfg.Validate(); err != nil {
			log.WithError(err).Fatal("Bad tracker")
		}
	}
	log.WithField("tracker", cfg.Tracker).Info("Starting")

	application := newApp(cfg, log)
	if err = application.run(os.Stdin, os.Stdout); err != nil {
		log.WithError(err).Fatal("Can't read input")
	}
}

func newApp(cfg *config.TrackerConfig, log *logrus.Logger) *app {
	return &app{
		cfg:      cfg,
		sessions: make(map[int64]*session),
		log:      log,
	}
}

// run processes JSON lines until EOF. Bad lines are logged and skipped.
func (application *app) run(in io.Reader, out io.Writer) error {
	s := bufio.NewScanner(in)
	bufsize := 10 << 20
	buf := make([]byte, bufsize)
	s.Buffer(buf, bufsize)
	for s.Scan() {
		line, err := application.processLine(s.Bytes())
		if err != nil {
			application.log.WithError(err).Warn("Skipping line")
			continue
		}
		fmt.Fprintln(out, line)
	}
	return s.Err()
}

// processLine tracks detections of a single line and writes identifiers into its items
func (application *app) processLine(reqdata []byte) (string, error) {
	if !gjson.ValidBytes(reqdata) {
		return "", errors.New("invalid JSON")
	}
	parsed := gjson.ParseBytes(reqdata)
	camID := parsed.Get("camera.id").Int()

	sess, err := application.sessionFor(camID)
	if err != nil {
		return "", err
	}

	items := parsed.Get("items").Array()
	detections := make([]mot.Detection, len(items))
	for i, item := range items {
		bbox := item.Get("bbox").Array()
		if len(bbox) != 4 {
			return "", errors.Wrapf(mot.ErrInvalidBox, "item #%d", i)
		}
		for k := range bbox {
			if bbox[k].Type != gjson.Number {
				return "", errors.Wrapf(mot.ErrInvalidBox, "item #%d: coordinate #%d is not a number", i, k)
			}
		}
		rect := mot.NewRect(bbox[0].Float(), bbox[1].Float(), bbox[2].Float(), bbox[3].Float())
		detections[i] = mot.NewDetection(rect.ToBox(), item.Get("prob").Float(), int(item.Get("class").Int()))
	}

	ids, err := sess.tracker.Update(detections)
	if err != nil {
		return "", errors.Wrapf(err, "camera %d", camID)
	}

	result := string(reqdata)
	for i := range items {
		id := mot.NoID
		if i < len(ids) {
			id = ids[i]
		}
		result, err = sjson.Set(result, fmt.Sprintf("items.%d.id", i), id)
		if err != nil {
			return "", errors.Wrap(err, "can't set id")
		}
	}
	application.log.WithFields(logrus.Fields{
		"camera":  camID,
		"session": sess.id,
		"items":   len(items),
	}).Debug("Tracked")
	return result, nil
}

func (application *app) sessionFor(camID int64) (*session, error) {
	if sess, ok := application.sessions[camID]; ok {
		return sess, nil
	}
	tracker, err := application.cfg.NewTracker()
	if err != nil {
		return nil, errors.Wrap(err, "can't create tracker")
	}
	sess := &session{
		id:      uuid.New(),
		tracker: tracker,
	}
	application.sessions[camID] = sess
	application.log.WithFields(logrus.Fields{
		"camera":  camID,
		"session": sess.id,
		"tracker": application.cfg.Tracker,
	}).Info("New camera session")
	return sess, nil
}

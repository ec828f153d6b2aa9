package mot

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the package-level diagnostic logger. It defaults to the logrus standard logger
// and may be replaced by SetLogger.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(logger logrus.FieldLogger) {
	if logger == nil {
		muted := logrus.New()
		muted.SetOutput(io.Discard)
		Logger = muted
		return
	}
	Logger = logger
}

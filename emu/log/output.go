package log

import (
	"io"
	"sync/atomic"

	"gopkg.in/Sirupsen/logrus.v0"
)

var disabled atomic.Bool

func init() {
	// Filtering happens per module, let logrus output everything it receives.
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true})
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Disable turns off all logging, including warnings and errors.
func Disable() {
	disabled.Store(true)
	logrus.SetOutput(io.Discard)
}

// Enable reverts a previous call to Disable. Output goes to w.
func Enable(w io.Writer) {
	disabled.Store(false)
	logrus.SetOutput(w)
}

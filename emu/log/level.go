package log

import "gopkg.in/Sirupsen/logrus.v0"

// Level is a logging severity. Values match logrus levels, lower is more
// severe.
type Level uint32

const (
	PanicLevel Level = Level(logrus.PanicLevel)
	FatalLevel Level = Level(logrus.FatalLevel)
	ErrorLevel Level = Level(logrus.ErrorLevel)
	WarnLevel  Level = Level(logrus.WarnLevel)
	InfoLevel  Level = Level(logrus.InfoLevel)
	DebugLevel Level = Level(logrus.DebugLevel)
)

func (lvl Level) String() string {
	return logrus.Level(lvl).String()
}

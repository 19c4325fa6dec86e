package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

// Entry is like a logrus.Entry, but fields are only evaluated when the entry
// is actually emitted.
type Entry struct {
	mod    Module
	fields [4]Fields
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())
	for _, f := range entry.fields {
		if f != nil {
			final = final.WithFields(logrus.Fields(f))
		}
	}
	return final
}

func (entry Entry) WithFields(fields Fields) Entry {
	for idx := range entry.fields {
		if entry.fields[idx] == nil {
			entry.fields[idx] = fields
			return entry
		}
	}
	return entry
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithFields(Fields{key: value})
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}

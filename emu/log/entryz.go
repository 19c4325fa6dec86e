package log

import (
	"fmt"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 12

// EntryZ is a log entry built by chaining typed field setters and terminated
// by End. A nil *EntryZ is valid: all methods are then no-ops, so disabled
// modules cost a single nil check per call.
type EntryZ struct {
	lvl   Level
	mod   Module
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (e *EntryZ) add(f ZField) *EntryZ {
	if e == nil {
		return nil
	}
	if e.zfidx < maxZFields {
		e.zfbuf[e.zfidx] = f
		e.zfidx++
	}
	return e
}

func (e *EntryZ) Bool(key string, b bool) *EntryZ {
	var v uint64
	if b {
		v = 1
	}
	return e.add(ZField{Type: FieldTypeBool, Key: key, Integer: v})
}

func (e *EntryZ) String(key, s string) *EntryZ {
	return e.add(ZField{Type: FieldTypeString, Key: key, String: s})
}

func (e *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return e.add(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint8(key string, v uint8) *EntryZ {
	return e.add(ZField{Type: FieldTypeUint, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint16(key string, v uint16) *EntryZ {
	return e.add(ZField{Type: FieldTypeUint, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint64(key string, v uint64) *EntryZ {
	return e.add(ZField{Type: FieldTypeUint, Key: key, Integer: v})
}

func (e *EntryZ) Int(key string, v int) *EntryZ {
	return e.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Int64(key string, v int64) *EntryZ {
	return e.add(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Error(key string, err error) *EntryZ {
	return e.add(ZField{Type: FieldTypeError, Key: key, Error: err})
}

func (e *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	return e.add(ZField{Type: FieldTypeStringer, Key: key, Interface: s})
}

func (e *EntryZ) Blob(key string, b []byte) *EntryZ {
	return e.add(ZField{Type: FieldTypeBlob, Key: key, Blob: b})
}

// End emits the entry and releases it. The entry must not be used afterwards.
func (e *EntryZ) End() {
	if e == nil {
		return
	}

	fields := make(logrus.Fields, e.zfidx+1)
	fields["_mod"] = e.mod.String()
	for i := range e.zfbuf[:e.zfidx] {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := e.lvl, e.msg

	clear(e.zfbuf[:e.zfidx])
	entryPool.Put(e)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	default:
		entry.Panic(msg)
	}
}

package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeUint
	FieldTypeInt
	FieldTypeError
	FieldTypeStringer
	FieldTypeBlob
)

// A ZField is a typed key/value pair, only formatted when its entry is
// emitted.
type ZField struct {
	Type FieldType
	Key  string

	// Only one of these is set, depending on Type.
	String    string
	Integer   uint64
	Error     error
	Interface fmt.Stringer
	Blob      []byte
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Integer != 0)
	case FieldTypeString:
		return f.String
	case FieldTypeHex8:
		return fmt.Sprintf("$%02X", uint8(f.Integer))
	case FieldTypeHex16:
		return fmt.Sprintf("$%04X", uint16(f.Integer))
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeStringer:
		if f.Interface == nil {
			return "<nil>"
		}
		return f.Interface.String()
	case FieldTypeBlob:
		return hex.EncodeToString(f.Blob)
	}
	return ""
}

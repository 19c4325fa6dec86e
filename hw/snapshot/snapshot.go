// Package snapshot implements the binary save-state format.
//
// A snapshot is the plain concatenation of the state of each component, in a
// fixed order, without header nor versioning. Integers are written in native
// byte order, fixed size arrays element by element and variable length
// slices as a 64-bit length followed by their elements. Loading must read
// components in the exact order they were saved.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShort is returned when the snapshot ends before all state could be read.
var ErrShort = errors.New("snapshot: unexpected end of data")

// maxSlice bounds the length prefix of variable length slices.
const maxSlice = 1 << 24

// A Saver is a component that can save and restore its state.
type Saver interface {
	SaveState(*Encoder)
	LoadState(*Decoder)
}

var order = binary.NativeEndian

// Encoder writes snapshot values to an io.Writer. The first error is sticky:
// once an error occurred all subsequent writes are no-ops and Err returns it.
type Encoder struct {
	w   io.Writer
	buf [8]byte
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *Encoder) Uint8(v uint8) {
	e.buf[0] = v
	e.write(e.buf[:1])
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

func (e *Encoder) Uint16(v uint16) {
	order.PutUint16(e.buf[:2], v)
	e.write(e.buf[:2])
}

func (e *Encoder) Uint32(v uint32) {
	order.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *Encoder) Uint64(v uint64) {
	order.PutUint64(e.buf[:8], v)
	e.write(e.buf[:8])
}

func (e *Encoder) Int64(v int64) { e.Uint64(uint64(v)) }
func (e *Encoder) Int(v int)     { e.Uint64(uint64(int64(v))) }

// Bytes writes a fixed size array.
func (e *Encoder) Bytes(p []byte) { e.write(p) }

// Slice writes a variable length slice, prefixed by its length.
func (e *Encoder) Slice(p []byte) {
	e.Uint64(uint64(len(p)))
	e.write(p)
}

// Save writes the state of all savers, in order.
func (e *Encoder) Save(savers ...Saver) error {
	for _, s := range savers {
		s.SaveState(e)
	}
	return e.err
}

// Decoder reads snapshot values from an io.Reader. Like Encoder, the first
// error is sticky, values read after an error are zero.
type Decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (d *Decoder) Err() error { return d.err }

// Fail records err, unless an error has already been recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) read(p []byte) bool {
	if d.err != nil {
		clear(p)
		return false
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrShort
		}
		d.err = err
		clear(p)
		return false
	}
	return true
}

func (d *Decoder) Uint8() uint8 {
	d.read(d.buf[:1])
	return d.buf[0]
}

func (d *Decoder) Bool() bool { return d.Uint8() != 0 }

func (d *Decoder) Uint16() uint16 {
	d.read(d.buf[:2])
	return order.Uint16(d.buf[:2])
}

func (d *Decoder) Uint32() uint32 {
	d.read(d.buf[:4])
	return order.Uint32(d.buf[:4])
}

func (d *Decoder) Uint64() uint64 {
	d.read(d.buf[:8])
	return order.Uint64(d.buf[:8])
}

func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }
func (d *Decoder) Int() int     { return int(int64(d.Uint64())) }

// Bytes fills the fixed size array p.
func (d *Decoder) Bytes(p []byte) { d.read(p) }

// Slice reads a variable length slice. The returned slice reuses p when it has
// the same length.
func (d *Decoder) Slice(p []byte) []byte {
	n := d.Uint64()
	if d.err != nil {
		return p
	}
	if n > maxSlice {
		d.err = fmt.Errorf("snapshot: slice length %d too large", n)
		return p
	}
	if uint64(len(p)) != n {
		p = make([]byte, n)
	}
	d.read(p)
	return p
}

// Load reads the state of all savers, in order.
func (d *Decoder) Load(savers ...Saver) error {
	for _, s := range savers {
		s.LoadState(d)
	}
	return d.err
}

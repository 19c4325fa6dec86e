package ines

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	ipsMagic = "PATCH"
	ipsEOF   = "EOF"
)

var (
	ErrPatchMagic = errors.New("invalid IPS magic")
	ErrShortPatch = errors.New("truncated IPS patch")
)

// ApplyIPS applies the IPS patch read from r to a copy of img and returns the
// patched image. Records writing past the end of the image grow it, an
// optional truncation offset following the EOF marker shrinks it.
//
// Format:
//
//	"PATCH"
//	{ offset:3 size:2 data[size] | offset:3 0:2 count:2 value:1 }
//	"EOF" [ truncate:3 ]
//
// All integers are big-endian.
func ApplyIPS(img []byte, r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	var magic [len(ipsMagic)]byte
	if err := readFull(br, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != ipsMagic {
		return nil, ErrPatchMagic
	}

	out := bytes.Clone(img)
	var buf [3]byte
	for nrec := 0; ; nrec++ {
		if err := readFull(br, buf[:3]); err != nil {
			return nil, fmt.Errorf("record %d: %w", nrec, err)
		}
		if string(buf[:3]) == ipsEOF {
			break
		}
		off := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])

		if err := readFull(br, buf[:2]); err != nil {
			return nil, fmt.Errorf("record %d: %w", nrec, err)
		}
		size := int(buf[0])<<8 | int(buf[1])

		if size == 0 {
			// RLE record.
			if err := readFull(br, buf[:3]); err != nil {
				return nil, fmt.Errorf("record %d: %w", nrec, err)
			}
			count := int(buf[0])<<8 | int(buf[1])
			out = grow(out, off+count)
			fill := out[off : off+count]
			for i := range fill {
				fill[i] = buf[2]
			}
			continue
		}

		out = grow(out, off+size)
		if err := readFull(br, out[off:off+size]); err != nil {
			return nil, fmt.Errorf("record %d: %w", nrec, err)
		}
	}

	// Optional truncation extension.
	n, err := io.ReadFull(br, buf[:3])
	switch {
	case n == 0 && err == io.EOF:
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("truncation offset: %w", ErrShortPatch)
	}
	trunc := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
	if trunc < len(out) {
		out = out[:trunc]
	}
	return out, nil
}

func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrShortPatch
		}
		return err
	}
	return nil
}

func grow(b []byte, n int) []byte {
	if n <= len(b) {
		return b
	}
	return append(b, make([]byte, n-len(b))...)
}

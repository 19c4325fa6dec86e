package ines

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ipsPatch(records ...[]byte) []byte {
	buf := []byte(ipsMagic)
	for _, r := range records {
		buf = append(buf, r...)
	}
	return buf
}

func TestApplyIPS(t *testing.T) {
	tests := []struct {
		name  string
		img   []byte
		patch []byte
		want  []byte
	}{
		{
			name:  "empty",
			img:   []byte{1, 2, 3},
			patch: ipsPatch([]byte(ipsEOF)),
			want:  []byte{1, 2, 3},
		},
		{
			name: "data record",
			img:  []byte{0, 0, 0, 0},
			patch: ipsPatch(
				[]byte{0, 0, 1, 0, 2, 0xAA, 0xBB},
				[]byte(ipsEOF),
			),
			want: []byte{0, 0xAA, 0xBB, 0},
		},
		{
			name: "rle record",
			img:  []byte{0, 0, 0, 0, 0},
			patch: ipsPatch(
				[]byte{0, 0, 1, 0, 0, 0, 3, 0x7F},
				[]byte(ipsEOF),
			),
			want: []byte{0, 0x7F, 0x7F, 0x7F, 0},
		},
		{
			name: "grows image",
			img:  []byte{1},
			patch: ipsPatch(
				[]byte{0, 0, 3, 0, 1, 9},
				[]byte(ipsEOF),
			),
			want: []byte{1, 0, 0, 9},
		},
		{
			name: "truncation",
			img:  []byte{1, 2, 3, 4, 5},
			patch: ipsPatch(
				[]byte(ipsEOF),
				[]byte{0, 0, 2},
			),
			want: []byte{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := bytes.Clone(tt.img)
			got, err := ApplyIPS(tt.img, bytes.NewReader(tt.patch))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("patched image mismatch (-want +got):\n%s", diff)
			}
			if !bytes.Equal(orig, tt.img) {
				t.Errorf("input image was modified")
			}
		})
	}
}

func TestApplyIPSErrors(t *testing.T) {
	tests := []struct {
		name  string
		patch []byte
		want  error
	}{
		{"bad magic", []byte("PATCX" + ipsEOF), ErrPatchMagic},
		{"no eof", ipsPatch([]byte{0, 0, 0, 0, 1, 1}), ErrShortPatch},
		{"short data", ipsPatch([]byte{0, 0, 0, 0, 4, 1, 2}), ErrShortPatch},
		{"short rle", ipsPatch([]byte{0, 0, 0, 0, 0, 0, 3}), ErrShortPatch},
		{"short truncation", ipsPatch([]byte(ipsEOF), []byte{0, 1}), ErrShortPatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyIPS(make([]byte, 8), bytes.NewReader(tt.patch))
			if !errors.Is(err, tt.want) {
				t.Errorf("got err = %v, want %v", err, tt.want)
			}
		})
	}
}

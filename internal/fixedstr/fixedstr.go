// Package fixedstr converts between Go strings and the NUL padded
// character fields of LAS headers and records.
package fixedstr

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Encode returns s as an n byte ISO-8859-1 field padded with NULs.
func Encode(s string, n int) ([]byte, error) {
	enc, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %q: %w", s, err)
	}
	if len(enc) > n {
		return nil, fmt.Errorf("%q exceeds %d bytes", s, n)
	}
	out := make([]byte, n)
	copy(out, enc)
	return out, nil
}

// Decode reads a NUL padded ISO-8859-1 field.
func Decode(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	dec, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(bytes.TrimRight(dec, " "))
}

// Fits reports whether s can be stored in an n byte field.
func Fits(s string, n int) bool {
	_, err := Encode(s, n)
	return err == nil
}

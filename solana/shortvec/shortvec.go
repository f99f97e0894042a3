// Package shortvec implements the compact-u16 length prefix used by the
// Solana transaction wire format.
//
// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/short_vec.rs
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// EncodeLen writes len to w as a compact-u16.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	var buf [3]byte
	v := uint16(len)
	for {
		elem := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf[n] = elem
			n++
			break
		}

		buf[n] = elem | 0x80
		n++
	}

	return w.Write(buf[:n])
}

// DecodeLen reads a compact-u16 from r.
func DecodeLen(r io.Reader) (val int, n int, err error) {
	var b [1]byte
	for n = 0; n < 3; n++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, n, errors.Wrap(err, "failed to read length byte")
		}

		elem := int(b[0] & 0x7f)
		val |= elem << (uint(n) * 7)

		if b[0]&0x80 == 0 {
			// Multi-byte encodings must not end in a zero byte.
			if n > 0 && b[0] == 0 {
				return 0, n + 1, errors.New("alias encoding")
			}
			if n == 2 && b[0] > 3 {
				return 0, n + 1, errors.New("value overflows u16")
			}
			return val, n + 1, nil
		}
	}

	return 0, n, errors.New("length exceeds 3 bytes")
}

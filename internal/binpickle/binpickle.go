// Package binpickle implements the small little-endian binary framing used
// throughout the engine's cache layout: each file begins with a fixed
// header sufficient for the reader to know its own size, and all
// integers are little-endian. Every persisted collection (building-block
// list, reaction list, reactant index, postfix notation, synthesis) is a
// sequence of length-prefixed blobs built from these primitives.
package binpickle

import (
	"encoding/binary"
	"io"

	"github.com/prexsyn/engine/pkg/errors"
)

// WriteUint64 writes v as 8 little-endian bytes.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(err, errors.CodeIOError, "write uint64")
	}
	return nil
}

// ReadUint64 reads 8 little-endian bytes into a uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(err, errors.CodeIOError, "read uint64")
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteByte writes a single tag/flag byte.
func WriteByte(w io.Writer, b byte) error {
	if _, err := w.Write([]byte{b}); err != nil {
		return errors.Wrap(err, errors.CodeIOError, "write byte")
	}
	return nil
}

// ReadByte reads a single tag/flag byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(err, errors.CodeIOError, "read byte")
	}
	return buf[0], nil
}

// WriteBlob writes a uint64 length prefix followed by b's raw bytes.
func WriteBlob(w io.Writer, b []byte) error {
	if err := WriteUint64(w, uint64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, errors.CodeIOError, "write blob")
	}
	return nil
}

// ReadBlob reads a length-prefixed blob written by WriteBlob.
func ReadBlob(r io.Reader) ([]byte, error) {
	n, err := ReadUint64(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "read blob")
	}
	return buf, nil
}

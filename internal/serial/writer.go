package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/encoding/traditionalchinese"
)

// Writer builds a persisted object record. All multi-byte writes are
// little-endian; strings are stored as MS950 (Big5) with a length prefix so
// the game server can read the same blobs.
//
// Like Reader, Writer keeps the first error; check Err() once the record
// is complete.
type Writer struct {
	buf []byte
	err error
}

// ErrUnencodable is returned for strings that have no MS950 form.
var ErrUnencodable = errors.New("string not representable in MS950")

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteVersion stamps the record version. Callers write it before any field
// belonging to the same type.
func (w *Writer) WriteVersion(v int32) {
	w.WriteInt(v)
}

// WriteByte writes 1 byte.
func (w *Writer) WriteByte(v byte) error {
	w.buf = append(w.buf, v)
	return nil
}

// WriteBool writes a bool as a single byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// WriteShort writes 2 bytes little-endian.
func (w *Writer) WriteShort(v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteInt writes 4 bytes little-endian.
func (w *Writer) WriteInt(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteLong writes 8 bytes little-endian.
func (w *Writer) WriteLong(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes a uint16 length prefix followed by the MS950 bytes.
// A string that cannot be encoded is not written and sets Err.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	raw, err := EncodeString(s)
	if err != nil {
		w.err = err
		return
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(raw)))
	w.buf = append(w.buf, b[:]...)
	w.buf = append(w.buf, raw...)
}

// EncodeString converts s to MS950 as WriteString stores it.
func EncodeString(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnencodable, s)
	}
	if len(raw) > math.MaxUint16 {
		return nil, fmt.Errorf("string of %d bytes exceeds the length prefix", len(raw))
	}
	return raw, nil
}

// Bytes returns the encoded record.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Err returns the first encoding error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Len returns the current length.
func (w *Writer) Len() int {
	return len(w.buf)
}

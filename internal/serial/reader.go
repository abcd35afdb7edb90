package serial

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/traditionalchinese"
)

// ErrShortRecord is returned when a record ends before all fields were read.
var ErrShortRecord = errors.New("serial: record truncated")

// Reader reads fields written by Writer. Unlike the wire reader it keeps the
// first error instead of returning zero values silently; check Err() once
// after a batch of reads.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadVersion reads a version stamp and fails when it is newer than max.
func (r *Reader) ReadVersion(max int32) (int32, error) {
	v := r.ReadInt()
	if r.err != nil {
		return 0, r.err
	}
	if v < 0 || v > max {
		return v, fmt.Errorf("serial: unsupported version %d (max %d)", v, max)
	}
	return v, nil
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = ErrShortRecord
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadByte reads 1 byte.
func (r *Reader) ReadByte() (byte, error) {
	b := r.take(1)
	if b == nil {
		return 0, r.err
	}
	return b[0], nil
}

// ReadBool reads a single-byte bool.
func (r *Reader) ReadBool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}

// ReadShort reads 2 bytes as little-endian int16.
func (r *Reader) ReadShort() int16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

// ReadInt reads 4 bytes as little-endian int32.
func (r *Reader) ReadInt() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadLong reads 8 bytes as little-endian int64.
func (r *Reader) ReadLong() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// ReadString reads a length-prefixed MS950 (Big5) string and returns UTF-8.
func (r *Reader) ReadString() string {
	n := r.ReadShort()
	raw := r.take(int(uint16(n)))
	return ms950ToUTF8(raw)
}

// ms950ToUTF8 converts MS950 (Big5) bytes to a UTF-8 string.
// Pure ASCII passes through unchanged.
func ms950ToUTF8(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}

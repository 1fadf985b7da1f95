// Package tap reads and writes TAP record streams.
//
// A TAP stream is a sequence of records with no file header:
//
//	u32le length | payload[length] | u32le length
//
// The trailing copy of the length lets a reader walk the tape backwards.
package tap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

const (
	lengthSize = 4
	// MaxRecord bounds the payload length accepted by Reader.
	MaxRecord = 1 << 24
)

var (
	// ErrShortRecord is returned when the stream ends inside a record.
	ErrShortRecord = errors.New("tap: short record")
	// ErrLengthMismatch is returned when the trailing length differs from the leading one.
	ErrLengthMismatch = errors.New("tap: trailing length mismatch")
	ErrTooLarge       = errors.New("tap: record too large")
)

// Marshal returns the TAP encoding of record, or nil for an empty record.
func Marshal(record []byte) []byte {
	if len(record) == 0 {
		return nil
	}
	ret := make([]byte, 0, len(record)+2*lengthSize)
	ret = binary.LittleEndian.AppendUint32(ret, uint32(len(record)))
	ret = append(ret, record...)
	ret = binary.LittleEndian.AppendUint32(ret, uint32(len(record)))
	return ret
}

// Writer emits records to an underlying writer. Empty records are
// dropped without any I/O.
type Writer struct {
	w       io.Writer
	records int
	bytes   int64
	logger  zerolog.Logger
}

func NewWriter(w io.Writer, logger zerolog.Logger) *Writer {
	return &Writer{
		w:      w,
		logger: logger.With().Str("stage", "tap").Logger(),
	}
}

func (w *Writer) Emit(record []byte) error {
	buf := Marshal(record)
	if buf == nil {
		return nil
	}
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("write record %d: %w", w.records, err)
	}
	w.logger.Debug().Int("record", w.records).Int("len", len(record)).Msg("wrote TAP record")
	w.records++
	w.bytes += int64(len(buf))
	return nil
}

// Records returns the number of records written.
func (w *Writer) Records() int { return w.records }

// Size returns the number of bytes written, length fields included.
func (w *Writer) Size() int64 { return w.bytes }

// Reader reads records from a TAP stream.
type Reader struct {
	r      io.Reader
	offset int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the stream offset of the next record.
func (r *Reader) Offset() int64 { return r.offset }

// Next returns the next record. It returns io.EOF at a clean end of stream.
func (r *Reader) Next() ([]byte, error) {
	var length uint32
	err := binary.Read(r.r, binary.LittleEndian, &length)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("at %d: %w", r.offset, ErrShortRecord)
	}
	if err != nil {
		return nil, err
	}

	if length > MaxRecord {
		return nil, fmt.Errorf("at %d: %d bytes: %w", r.offset, length, ErrTooLarge)
	}

	record := make([]byte, length)
	if _, err := io.ReadFull(r.r, record); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("at %d: payload of %d bytes: %w", r.offset, length, ErrShortRecord)
		}
		return nil, err
	}

	var trailer uint32
	if err := binary.Read(r.r, binary.LittleEndian, &trailer); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("at %d: trailer: %w", r.offset, ErrShortRecord)
		}
		return nil, err
	}
	if trailer != length {
		return nil, fmt.Errorf("at %d: %d != %d: %w", r.offset, trailer, length, ErrLengthMismatch)
	}

	r.offset += int64(length) + 2*lengthSize
	return record, nil
}

// ReadAll reads every record up to the end of the stream.
func ReadAll(r io.Reader) ([][]byte, error) {
	tr := NewReader(r)
	var ret [][]byte
	for {
		record, err := tr.Next()
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return ret, err
		}
		ret = append(ret, record)
	}
}

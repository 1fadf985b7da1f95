package frame

import (
	"bufio"
	"io"
)

// DefaultSyncBytes is the number of all-ones bytes written before and after
// each record, enough for a reader to lock on before the start marker.
const DefaultSyncBytes = 200

// AppendRecord appends the logical bits of one record to dst:
// syncBytes*8 ones, the start marker, each byte LSB first followed by the
// marker, eleven ones, and syncBytes*8 ones again.
// An empty record appends nothing.
func AppendRecord(dst, record []byte, syncBytes int) []byte {
	if len(record) == 0 {
		return dst
	}
	dst = appendOnes(dst, syncBytes*8)
	dst = append(dst, SyncMarker[:]...)
	for _, v := range record {
		for i := 0; i < DataLen; i++ {
			dst = append(dst, (v>>i)&1)
		}
		dst = append(dst, SyncMarker[:]...)
	}
	dst = appendOnes(dst, FrameLen)
	return appendOnes(dst, syncBytes*8)
}

func appendOnes(dst []byte, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, 1)
	}
	return dst
}

// Framer writes records as logical bits. It is a Sink, so a Machine can
// feed it directly.
type Framer struct {
	w         *bufio.Writer
	syncBytes int
	buf       []byte
	records   int
}

func NewFramer(w io.Writer, syncBytes int) *Framer {
	return &Framer{
		w:         bufio.NewWriter(w),
		syncBytes: syncBytes,
	}
}

func (f *Framer) Emit(record []byte) error {
	if len(record) == 0 {
		return nil
	}
	f.buf = AppendRecord(f.buf[:0], record, f.syncBytes)
	if _, err := f.w.Write(f.buf); err != nil {
		return err
	}
	f.records++
	return nil
}

// Records returns the number of records written.
func (f *Framer) Records() int { return f.records }

func (f *Framer) Flush() error {
	return f.w.Flush()
}

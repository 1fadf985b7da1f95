package tap

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name   string
		record []byte
		want   []byte
	}{
		{"empty", nil, nil},
		{"empty non-nil", []byte{}, nil},
		{"one byte", []byte{0x41}, []byte{1, 0, 0, 0, 0x41, 1, 0, 0, 0}},
		{"300 bytes", make([]byte, 300), append(append([]byte{0x2c, 0x01, 0, 0}, make([]byte, 300)...), 0x2c, 0x01, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Marshal(tt.record); !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriterSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, zerolog.Nop())
	for _, r := range [][]byte{nil, {0x41, 0x42}, {}, {0x43}} {
		if err := w.Emit(r); err != nil {
			t.Fatal(err)
		}
	}
	// a cleared record emitted again is a no-op
	if err := w.Emit(nil); err != nil {
		t.Fatal(err)
	}
	want := []byte{2, 0, 0, 0, 0x41, 0x42, 2, 0, 0, 0, 1, 0, 0, 0, 0x43, 1, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("written = %v, want %v", buf.Bytes(), want)
	}
	if w.Records() != 2 || w.Size() != int64(len(want)) {
		t.Errorf("records = %d size = %d", w.Records(), w.Size())
	}
}

type errWriter struct{}

var errWrite = errors.New("disk full")

func (errWriter) Write(p []byte) (int, error) { return 0, errWrite }

func TestWriterError(t *testing.T) {
	w := NewWriter(errWriter{}, zerolog.Nop())
	if err := w.Emit(nil); err != nil {
		t.Errorf("Emit(nil) = %v, want nil", err)
	}
	if err := w.Emit([]byte{1}); !errors.Is(err, errWrite) {
		t.Errorf("Emit() = %v, want %v", err, errWrite)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	records := [][]byte{{0x41}, bytes.Repeat([]byte{0xaa}, 513), []byte("ABC")}
	var buf bytes.Buffer
	w := NewWriter(&buf, zerolog.Nop())
	for _, r := range records {
		if err := w.Emit(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("ReadAll() = %v, want %v", got, records)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"clean end", nil, io.EOF},
		{"short length", []byte{1, 0}, ErrShortRecord},
		{"short payload", []byte{3, 0, 0, 0, 1}, ErrShortRecord},
		{"missing trailer", []byte{1, 0, 0, 0, 1}, ErrShortRecord},
		{"short trailer", []byte{1, 0, 0, 0, 1, 1, 0}, ErrShortRecord},
		{"mismatch", []byte{1, 0, 0, 0, 1, 2, 0, 0, 0}, ErrLengthMismatch},
		{"too large", []byte{0xff, 0xff, 0xff, 0xff}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data)).Next()
			if !errors.Is(err, tt.want) {
				t.Errorf("Next() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReaderOffset(t *testing.T) {
	data := append(Marshal([]byte{1, 2, 3}), Marshal([]byte{4})...)
	r := NewReader(bytes.NewReader(data))
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if r.Offset() != 11 {
		t.Errorf("Offset() = %d, want 11", r.Offset())
	}
}

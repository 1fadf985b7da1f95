package fm

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestDecodePair(t *testing.T) {
	tests := []struct {
		name     string
		line     LineState
		a, b     byte
		wantBit  byte
		wantNext LineState
		wantOK   bool
	}{
		{"low 11", Low, 1, 1, 1, High, true},
		{"low 10", Low, 1, 0, 0, Low, true},
		{"low 01", Low, 0, 1, 0, Low, false},
		{"low 00", Low, 0, 0, 0, Low, false},
		{"high 00", High, 0, 0, 1, Low, true},
		{"high 01", High, 0, 1, 0, High, true},
		{"high 11", High, 1, 1, 0, High, false},
		{"high 10", High, 1, 0, 0, High, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bit, next, ok := DecodePair(tt.a, tt.b, tt.line)
			if ok != tt.wantOK {
				t.Fatalf("DecodePair() ok = %v, want %v", ok, tt.wantOK)
			}
			if next != tt.wantNext {
				t.Errorf("DecodePair() next = %v, want %v", next, tt.wantNext)
			}
			if ok && bit != tt.wantBit {
				t.Errorf("DecodePair() bit = %d, want %d", bit, tt.wantBit)
			}
		})
	}
}

func TestEncodeBitInvertsDecodePair(t *testing.T) {
	for _, line := range []LineState{Low, High} {
		for _, bit := range []byte{0, 1} {
			a, b, next := EncodeBit(bit, line)
			got, gotNext, ok := DecodePair(a, b, line)
			if !ok || got != bit || gotNext != next {
				t.Errorf("line %v bit %d: encoded (%d,%d) decodes to %d/%v/%v", line, bit, a, b, got, gotNext, ok)
			}
		}
	}
}

func lsbFirst(data []byte) []byte {
	ret := make([]byte, 0, len(data)*8)
	for _, v := range data {
		for i := 0; i < 8; i++ {
			ret = append(ret, (v>>i)&1)
		}
	}
	return ret
}

func TestRoundTrip(t *testing.T) {
	first := lsbFirst([]byte{0x41, 0x00, 0xff})
	second := lsbFirst([]byte{0x55, 0xaa, 0x01, 0x80})

	enc := NewEncoder(Low)
	ch1 := enc.EncodeBits(nil, first)
	lineBetween := enc.Line()
	ch2 := enc.EncodeBits(nil, second)

	dec := NewDecoder(Low, zerolog.Nop())
	got1 := dec.DecodeBits(ch1)
	if dec.Line() != lineBetween {
		t.Fatalf("line after first run = %v, want %v", dec.Line(), lineBetween)
	}
	got2 := dec.DecodeBits(ch2)

	if !reflect.DeepEqual(got1, first) {
		t.Errorf("first = %v, want %v", got1, first)
	}
	if !reflect.DeepEqual(got2, second) {
		t.Errorf("second = %v, want %v", got2, second)
	}
	if s := dec.Stats(); s.Errors != 0 || s.Bits != len(first)+len(second) {
		t.Errorf("stats = %+v", s)
	}
}

func TestInvalidPairMidStream(t *testing.T) {
	// Low: (0,1) is invalid, then (1,0) -> 0 stays Low, then (1,1) -> 1 goes High
	channel := []byte{0, 1, 1, 0, 1, 1}
	dec := NewDecoder(Low, zerolog.Nop())
	got := dec.DecodeBits(channel)
	if want := []byte{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("bits = %v, want %v", got, want)
	}
	s := dec.Stats()
	if s.Errors != 1 || s.Pairs != 3 || s.Bits != 2 || s.ChannelBits != 6 {
		t.Errorf("stats = %+v", s)
	}
	if dec.Line() != High {
		t.Errorf("line = %v, want HIGH", dec.Line())
	}
}

func TestInvalidPairKeepsLine(t *testing.T) {
	dec := NewDecoder(High, zerolog.Nop())
	if got := dec.DecodeBits([]byte{1, 1}); len(got) != 0 {
		t.Errorf("bits = %v, want none", got)
	}
	if dec.Line() != High {
		t.Errorf("line = %v, want HIGH", dec.Line())
	}
}

func TestDecodeStream(t *testing.T) {
	bits := lsbFirst([]byte{0x12, 0x34})
	channel := NewEncoder(Low).EncodeBits(nil, bits)
	// odd trailing sample is dropped
	channel = append(channel, 1)

	dec := NewDecoder(Low, zerolog.Nop())
	var out bytes.Buffer
	if err := dec.Decode(&out, bytes.NewReader(channel)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), bits) {
		t.Errorf("Decode() = %v, want %v", out.Bytes(), bits)
	}
	if s := dec.Stats(); s.ChannelBits != len(channel) || s.Pairs != len(bits) {
		t.Errorf("stats = %+v", s)
	}
}

func TestEncodeStream(t *testing.T) {
	bits := lsbFirst([]byte{0xc3})
	var out bytes.Buffer
	if err := NewEncoder(High).Encode(&out, bytes.NewReader(bits)); err != nil {
		t.Fatal(err)
	}
	if want := NewEncoder(High).EncodeBits(nil, bits); !bytes.Equal(out.Bytes(), want) {
		t.Errorf("Encode() = %v, want %v", out.Bytes(), want)
	}
}

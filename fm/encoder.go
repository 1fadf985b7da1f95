package fm

import (
	"bufio"
	"io"
)

// Encoder turns logical bits into channel bits.
type Encoder struct {
	line LineState
}

func NewEncoder(initial LineState) *Encoder {
	return &Encoder{line: initial}
}

func (e *Encoder) Line() LineState { return e.line }

// EncodeBits appends the channel bits of bits to dst.
func (e *Encoder) EncodeBits(dst, bits []byte) []byte {
	for _, bit := range bits {
		var a, b byte
		a, b, e.line = EncodeBit(bit, e.line)
		dst = append(dst, a, b)
	}
	return dst
}

// Encode reads logical bits (one byte per bit) from r until EOF and writes
// two channel bits per logical bit to wbits.
func (e *Encoder) Encode(wbits io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(wbits)
	for {
		bit, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		var a, b byte
		a, b, e.line = EncodeBit(bit, e.line)
		if err := bw.WriteByte(a); err != nil {
			return err
		}
		if err := bw.WriteByte(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

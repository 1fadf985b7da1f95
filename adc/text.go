package adc

import (
	"bufio"
	"io"
)

// Text2bits converts a channel bit trace to one byte per bit.
// Only '0' and '1' are significant; every other character is skipped, so
// the trace may be wrapped, spaced or annotated freely.
//
// sample:
//
//	1110 1011 1010 ...
//	# anything else is ignored
func Text2bits(wbits io.Writer, r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(wbits)
	count := 0
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if c != '0' && c != '1' {
			continue
		}
		if err := bw.WriteByte(c - '0'); err != nil {
			return count, err
		}
		count++
	}
	return count, bw.Flush()
}

// Bits2text is the inverse of Text2bits. A newline is written after every
// columns bits; columns <= 0 writes a single line.
func Bits2text(w io.Writer, rbits io.Reader, columns int) (int, error) {
	br := bufio.NewReader(rbits)
	bw := bufio.NewWriter(w)
	count := 0
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if err := bw.WriteByte('0' + b&1); err != nil {
			return count, err
		}
		count++
		if columns > 0 && count%columns == 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return count, err
			}
		}
	}
	if columns <= 0 || count%columns != 0 {
		if err := bw.WriteByte('\n'); err != nil {
			return count, err
		}
	}
	return count, bw.Flush()
}

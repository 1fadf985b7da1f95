// Package fm converts between FM channel bits and logical bits.
//
// Every logical bit occupies two channel bits. Which pair is used depends
// on the line level left behind by the previous pair:
//
//	line  bit 1  bit 0
//	Low   11     10
//	High  00     01
//
// After a pair the line is at the level of its second channel bit.
package fm

import "fmt"

// LineState is the last line level seen by the decoder or left by the encoder.
type LineState byte

const (
	Low LineState = iota
	High
)

func (l LineState) String() string {
	switch l {
	case Low:
		return "LOW"
	case High:
		return "HIGH"
	}
	return fmt.Sprintf("LineState(%d)", byte(l))
}

// LineOf returns the line level a channel bit leaves behind.
func LineOf(b byte) LineState {
	if b != 0 {
		return High
	}
	return Low
}

// DecodePair decodes one channel bit pair (a,b) under line.
// ok is false for a pair that is not a valid code for line; next is line then.
func DecodePair(a, b byte, line LineState) (bit byte, next LineState, ok bool) {
	switch line {
	case Low:
		switch {
		case a == 1 && b == 1:
			return 1, LineOf(b), true
		case a == 1 && b == 0:
			return 0, LineOf(b), true
		}
	case High:
		switch {
		case a == 0 && b == 0:
			return 1, LineOf(b), true
		case a == 0 && b == 1:
			return 0, LineOf(b), true
		}
	}
	return 0, line, false
}

// EncodeBit is the inverse of DecodePair.
func EncodeBit(bit byte, line LineState) (a, b byte, next LineState) {
	if line == Low {
		a = 1
		if bit != 0 {
			b = 1
		}
	} else {
		if bit == 0 {
			b = 1
		}
	}
	return a, b, LineOf(b)
}

// Package frame finds records in a stream of logical bits.
//
// A record on tape is a sync marker (010) followed by 11-bit frames: eight
// data bits LSB first and the sync marker again as a trailer. A frame of
// eleven ones ends the record.
package frame

import "fmt"

const (
	MarkerLen = 3
	DataLen   = 8
	FrameLen  = DataLen + MarkerLen
)

// SyncMarker starts every record and trails every data frame.
var SyncMarker = [MarkerLen]byte{0, 1, 0}

// Outcome is the classification of one frame.
type Outcome int

const (
	DataByte Outcome = iota
	EndOfRecord
	SyncViolation
)

func (o Outcome) String() string {
	switch o {
	case DataByte:
		return "byte"
	case EndOfRecord:
		return "end"
	case SyncViolation:
		return "sync violation"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Classify classifies an 11-bit frame. value is only meaningful for DataByte.
func Classify(f [FrameLen]byte) (Outcome, byte) {
	allOnes := true
	for _, b := range f {
		if b != 1 {
			allOnes = false
			break
		}
	}
	if allOnes {
		return EndOfRecord, 0
	}

	if [MarkerLen]byte(f[DataLen:]) != SyncMarker {
		return SyncViolation, 0
	}

	// from LSB
	var ret byte
	for i := 0; i < DataLen; i++ {
		ret |= (f[i] & 1) << i
	}
	return DataByte, ret
}

package tap

import "fmt"

// Kind is the Datapoint 2200 block type of a record, told apart by its
// first two bytes.
type Kind int

const (
	KindOther Kind = iota // boot block or unknown
	KindFileHeader
	KindNumeric
	KindSymbolic
)

func (k Kind) String() string {
	switch k {
	case KindFileHeader:
		return "file header"
	case KindNumeric:
		return "numeric"
	case KindSymbolic:
		return "symbolic"
	}
	return "other"
}

const (
	// EndOfTape is the file number written after the last file.
	EndOfTape = 127

	fileHeaderSize = 4
)

// Classify returns the block kind of record.
func Classify(record []byte) Kind {
	if len(record) < 2 {
		return KindOther
	}
	switch {
	case record[0] == 0o201 && record[1] == 0o176:
		return KindFileHeader
	case record[0] == 0o303 && record[1] == 0o074:
		return KindNumeric
	case record[0] == 0o347 && record[1] == 0o030:
		return KindSymbolic
	}
	return KindOther
}

// ChecksumOK runs the XOR and the circulating checksum over record[2:];
// both must come out zero.
func ChecksumOK(record []byte) bool {
	if len(record) < 4 {
		return false
	}
	xor := record[2]
	circ := record[3]
	for _, b := range record[4:] {
		xor ^= b
		circ ^= b
		circ = circ>>1 | circ<<7
	}
	return xor == 0 && circ == 0
}

// SetChecksum fills record[2:4] so that ChecksumOK holds.
func SetChecksum(record []byte) {
	if len(record) < 4 {
		return
	}
	var xor, circ byte
	// circ must satisfy rotr^n(c ^ ...) == 0; run the rotation backwards
	for i := len(record) - 1; i >= 4; i-- {
		circ = circ<<1 | circ>>7
		circ ^= record[i]
	}
	for _, b := range record[4:] {
		xor ^= b
	}
	record[2] = xor
	record[3] = circ
}

// FileHeader is the content of a KindFileHeader record.
type FileHeader struct {
	Number   int
	Inverted bool // byte 3 is the complement of the file number
	SizeOK   bool
}

func (h FileHeader) EndOfTape() bool { return h.Number == EndOfTape }

func ParseFileHeader(record []byte) (FileHeader, error) {
	if Classify(record) != KindFileHeader || len(record) < 3 {
		return FileHeader{}, fmt.Errorf("not a file header")
	}
	h := FileHeader{
		Number: int(record[2]),
		SizeOK: len(record) == fileHeaderSize,
	}
	if len(record) > 3 {
		h.Inverted = record[2] == ^record[3]
	}
	return h, nil
}

// Numeric is the content of a KindNumeric record.
type Numeric struct {
	LoadAddress uint16
	AddressOK   bool // bytes 6 and 7 are the complement of the address
	ChecksumOK  bool
	Data        []byte
}

func ParseNumeric(record []byte) (Numeric, error) {
	if Classify(record) != KindNumeric || len(record) < 8 {
		return Numeric{}, fmt.Errorf("not a numeric record")
	}
	return Numeric{
		LoadAddress: uint16(record[4])<<8 | uint16(record[5]),
		AddressOK:   record[4] == ^record[6] && record[5] == ^record[7],
		ChecksumOK:  ChecksumOK(record),
		Data:        record[8:],
	}, nil
}

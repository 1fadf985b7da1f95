package frame

import (
	"bufio"
	"bytes"
	"io"

	"github.com/rs/zerolog"
)

// State of the record machine.
type State int

const (
	Searching State = iota
	InRecord
)

func (s State) String() string {
	if s == InRecord {
		return "IN_RECORD"
	}
	return "SEARCHING"
}

// Sink receives every flushed record. It is also handed empty records
// and must ignore them.
type Sink interface {
	Emit(record []byte) error
}

// Stats counts what a Machine has seen so far.
type Stats struct {
	Bits           int
	Markers        int
	Bytes          int
	EndMarkers     int
	SyncViolations int
	Incomplete     int // 1 if the stream ended inside a frame
	Records        int // non-empty records flushed to the sink
}

// Machine is the two state record machine. Without a sink it makes the same
// transitions but keeps no bytes.
type Machine struct {
	state  State
	sink   Sink
	record []byte

	pos    int // logical bit position of the next unread bit
	window [MarkerLen]byte
	filled int

	stats  Stats
	logger zerolog.Logger
}

func NewMachine(sink Sink, logger zerolog.Logger) *Machine {
	return &Machine{
		sink:   sink,
		logger: logger.With().Str("stage", "frame").Logger(),
	}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Stats() Stats { return m.stats }

// Run consumes logical bits (one byte per bit) from r until EOF.
// Malformed input never makes Run fail; only read and sink errors do.
func (m *Machine) Run(r io.Reader) error {
	br := bufio.NewReader(r)
	var f [FrameLen]byte
	for {
		switch m.state {
		case Searching:
			bit, err := br.ReadByte()
			if err == io.EOF {
				m.done()
				return nil
			}
			if err != nil {
				return err
			}
			m.pos++
			m.stats.Bits++
			m.search(bit)

		case InRecord:
			n, err := io.ReadFull(br, f[:])
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				m.pos += n
				m.stats.Bits += n
				if err := m.incomplete(n); err != nil {
					return err
				}
				m.done()
				return nil
			}
			if err != nil {
				return err
			}
			pos := m.pos
			m.pos += FrameLen
			m.stats.Bits += FrameLen
			if err := m.frame(pos, f); err != nil {
				return err
			}
		}
	}
}

// RunBits is Run over an in-memory bit slice.
func (m *Machine) RunBits(bits []byte) error {
	return m.Run(bytes.NewReader(bits))
}

// search shifts bit into the marker window and opens a record on a match.
func (m *Machine) search(bit byte) {
	copy(m.window[:], m.window[1:])
	m.window[MarkerLen-1] = bit
	if m.filled < MarkerLen {
		m.filled++
	}
	if m.filled < MarkerLen || m.window != SyncMarker {
		return
	}

	m.stats.Markers++
	m.logger.Debug().Int("pos", m.pos-MarkerLen).Msg("sync marker")
	m.state = InRecord
	m.record = nil
	if m.sink != nil {
		m.record = make([]byte, 0, 256)
	}
}

// frame handles one complete frame read while in a record.
func (m *Machine) frame(pos int, f [FrameLen]byte) error {
	outcome, value := Classify(f)
	switch outcome {
	case EndOfRecord:
		m.stats.EndMarkers++
		m.logger.Debug().Int("pos", pos).Msg("end of record")
		if err := m.flush(); err != nil {
			return err
		}
		m.toSearching()

	case DataByte:
		m.stats.Bytes++
		m.logger.Debug().Int("pos", pos).Uint8("value", value).Msg("byte")
		if m.sink != nil {
			m.record = append(m.record, value)
		}

	case SyncViolation:
		m.stats.SyncViolations++
		m.logger.Warn().
			Int("pos", pos).
			Bytes("trailer", trailerText(f)).
			Int("kept", len(m.record)).
			Msg("sync violation, frame discarded")
		if err := m.flush(); err != nil {
			return err
		}
		m.toSearching()
	}
	return nil
}

// incomplete ends a record cut short by the end of the stream. The partial
// frame is dropped unclassified.
func (m *Machine) incomplete(dropped int) error {
	m.stats.Incomplete++
	m.logger.Warn().
		Int("pos", m.pos-dropped).
		Int("dropped", dropped).
		Msg("incomplete frame at end of stream")
	return m.flush()
}

func (m *Machine) flush() error {
	record := m.record
	m.record = nil
	if len(record) > 0 {
		m.stats.Records++
		m.logger.Info().Int("len", len(record)).Msg("record")
	}
	if m.sink == nil {
		return nil
	}
	return m.sink.Emit(record)
}

func (m *Machine) toSearching() {
	m.state = Searching
	m.filled = 0
}

func (m *Machine) done() {
	m.logger.Info().
		Int("bits", m.stats.Bits).
		Int("markers", m.stats.Markers).
		Int("bytes", m.stats.Bytes).
		Int("records", m.stats.Records).
		Int("sync_violations", m.stats.SyncViolations).
		Msg("framing done")
}

func trailerText(f [FrameLen]byte) []byte {
	ret := make([]byte, MarkerLen)
	for i, b := range f[DataLen:] {
		ret[i] = '0' + b&1
	}
	return ret
}

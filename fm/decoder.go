package fm

import (
	"bufio"
	"io"

	"github.com/rs/zerolog"
)

// Stats counts what a Decoder has seen so far.
type Stats struct {
	ChannelBits int // channel bits read, including a discarded odd trailing one
	Pairs       int
	Errors      int // invalid pairs
	Bits        int // logical bits produced
}

// Decoder turns channel bits into logical bits.
// The zero value is not usable; use NewDecoder.
type Decoder struct {
	line   LineState
	stats  Stats
	logger zerolog.Logger
}

func NewDecoder(initial LineState, logger zerolog.Logger) *Decoder {
	return &Decoder{
		line:   initial,
		logger: logger.With().Str("stage", "fm").Logger(),
	}
}

func (d *Decoder) Line() LineState { return d.line }

func (d *Decoder) Stats() Stats { return d.stats }

// step decodes one pair. An invalid pair is counted and logged and leaves
// the line state alone; the caller always moves on to the next pair.
func (d *Decoder) step(a, b byte) (byte, bool) {
	index := d.stats.Pairs
	d.stats.Pairs++
	d.stats.ChannelBits += 2

	bit, next, ok := DecodePair(a, b, d.line)
	if !ok {
		d.stats.Errors++
		d.logger.Debug().
			Int("pair", index).
			Uint8("a", a).
			Uint8("b", b).
			Stringer("line", d.line).
			Msg("invalid FM pair")
		return 0, false
	}
	d.line = next
	d.stats.Bits++
	return bit, true
}

// DecodeBits decodes a whole channel bit slice and returns the logical bits.
// A trailing odd channel bit is discarded.
func (d *Decoder) DecodeBits(channel []byte) []byte {
	ret := make([]byte, 0, len(channel)/2)
	for i := 0; i+1 < len(channel); i += 2 {
		if bit, ok := d.step(channel[i], channel[i+1]); ok {
			ret = append(ret, bit)
		}
	}
	if len(channel)%2 != 0 {
		d.stats.ChannelBits++
	}
	return ret
}

// Decode reads channel bits (one byte per bit) from r until EOF and writes
// the logical bits (one byte per bit) to wbits.
func (d *Decoder) Decode(wbits io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(wbits)

	var pair [2]byte
	for {
		n, err := io.ReadFull(br, pair[:])
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			// odd trailing sample
			d.stats.ChannelBits += n
			break
		}
		if err != nil {
			return err
		}

		bit, ok := d.step(pair[0], pair[1])
		if !ok {
			continue
		}
		if err := bw.WriteByte(bit); err != nil {
			return err
		}
	}

	d.logger.Info().
		Int("channel_bits", d.stats.ChannelBits).
		Int("pairs", d.stats.Pairs).
		Int("errors", d.stats.Errors).
		Int("bits", d.stats.Bits).
		Msg("FM decode done")
	return bw.Flush()
}

// Package pipeline chains the conversion steps with io.Pipe, one goroutine
// per step. Bits travel between steps one byte per bit, in order.
package pipeline

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ysh86/DPtools/adc"
	"github.com/ysh86/DPtools/fm"
	"github.com/ysh86/DPtools/frame"
	"github.com/ysh86/DPtools/tap"
)

// Source writes channel bits and returns how many it wrote.
type Source func(wbits io.Writer) (int, error)

// Output consumes channel bits until EOF.
type Output func(rbits io.Reader) error

func TextSource(r io.Reader) Source {
	return func(wbits io.Writer) (int, error) {
		return adc.Text2bits(wbits, r)
	}
}

func WavSource(f adc.WavSource, samplesPerBit int, logger zerolog.Logger) Source {
	return func(wbits io.Writer) (int, error) {
		return adc.Wav2bits(wbits, f, samplesPerBit, logger)
	}
}

func TextOutput(w io.Writer, columns int) Output {
	return func(rbits io.Reader) error {
		_, err := adc.Bits2text(w, rbits, columns)
		return err
	}
}

func WavOutput(w io.Writer, sampleRate, samplesPerBit int) Output {
	return func(rbits io.Reader) error {
		bits, err := io.ReadAll(rbits) // all on mem: the WAV header needs the length
		if err != nil {
			return err
		}
		return adc.Bits2wav(w, bits, sampleRate, samplesPerBit)
	}
}

type Options struct {
	Line      fm.LineState
	SyncBytes int
	Logger    zerolog.Logger
}

type Stats struct {
	ChannelBits int
	FM          fm.Stats
	Frame       frame.Stats
	Records     int
}

// closeOnDone closes every pipe with the context error once ctx is done,
// so that no step stays blocked on a peer that went away.
func closeOnDone(ctx context.Context, pipes ...interface{ CloseWithError(error) error }) func() bool {
	return context.AfterFunc(ctx, func() {
		for _, p := range pipes {
			p.CloseWithError(ctx.Err())
		}
	})
}

// Decode runs src -> FM decoder -> record machine. sink may be nil, in which
// case the records are only counted and logged.
func Decode(ctx context.Context, src Source, sink frame.Sink, opts Options) (Stats, error) {
	var stats Stats
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	dec := fm.NewDecoder(opts.Line, opts.Logger)
	m := frame.NewMachine(sink, opts.Logger)

	rchannel, wchannel := io.Pipe()
	rbits, wbits := io.Pipe()

	eg, ctx := errgroup.WithContext(ctx)
	stop := closeOnDone(ctx, rchannel, wchannel, rbits, wbits)
	defer stop()

	// step1: input to channel bits
	eg.Go(func() error {
		n, err := src(wchannel)
		stats.ChannelBits = n
		wchannel.CloseWithError(err)
		return err
	})

	// step2: channel bits to logical bits
	eg.Go(func() error {
		err := dec.Decode(wbits, rchannel)
		rchannel.CloseWithError(err)
		wbits.CloseWithError(err)
		return err
	})

	// step3: logical bits to records
	eg.Go(func() error {
		err := m.Run(rbits)
		rbits.CloseWithError(err)
		return err
	})

	err := eg.Wait()
	stats.FM = dec.Stats()
	stats.Frame = m.Stats()
	stats.Records = stats.Frame.Records
	return stats, err
}

// Encode runs TAP records -> framer -> FM encoder -> out.
func Encode(ctx context.Context, r io.Reader, out Output, opts Options) (Stats, error) {
	var stats Stats
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	enc := fm.NewEncoder(opts.Line)

	rbits, wbits := io.Pipe()
	rchannel, wchannel := io.Pipe()
	framer := frame.NewFramer(wbits, opts.SyncBytes)

	eg, ctx := errgroup.WithContext(ctx)
	stop := closeOnDone(ctx, rbits, wbits, rchannel, wchannel)
	defer stop()

	logger := opts.Logger.With().Str("stage", "framer").Logger()

	// step1: TAP records to logical bits
	eg.Go(func() error {
		tr := tap.NewReader(r)
		var err error
		for {
			var record []byte
			record, err = tr.Next()
			if err != nil {
				break
			}
			logger.Debug().Int64("offset", tr.Offset()).Int("len", len(record)).Msg("framing record")
			if err = framer.Emit(record); err != nil {
				break
			}
		}
		if err == io.EOF {
			err = framer.Flush()
		}
		wbits.CloseWithError(err)
		return err
	})

	// step2: logical bits to channel bits
	eg.Go(func() error {
		err := enc.Encode(wchannel, rbits)
		rbits.CloseWithError(err)
		wchannel.CloseWithError(err)
		return err
	})

	// step3: channel bits out
	eg.Go(func() error {
		err := out(rchannel)
		rchannel.CloseWithError(err)
		return err
	})

	err := eg.Wait()
	stats.Records = framer.Records()
	return stats, err
}

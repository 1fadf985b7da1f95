package adc

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/youpy/go-wav"
)

// ErrFormat is returned for WAV input the converters cannot handle.
var ErrFormat = errors.New("adc: unsupported WAV format")

// WavSource is what the WAV reader needs: *os.File or *bytes.Reader.
type WavSource interface {
	io.Reader
	io.ReaderAt
}

// Wav2bits reads a square-wave capture of channel bits, samplesPerBit
// samples per channel bit, and writes one byte per channel bit.
//
// Each sample is sliced at the mid level (L channel only) and the centre
// sample of every group decides the bit. There is no clock recovery: the
// capture must already sit on the sample grid, as written by Bits2wav.
func Wav2bits(wbits io.Writer, f WavSource, samplesPerBit int, logger zerolog.Logger) (int, error) {
	if samplesPerBit < 1 {
		return 0, fmt.Errorf("samples per bit %d: %w", samplesPerBit, ErrFormat)
	}
	reader := wav.NewReader(f)

	// input parameters
	duration, err := reader.Duration()
	if err != nil {
		return 0, err
	}
	format, err := reader.Format()
	if err != nil {
		return 0, err
	}
	logger.Info().
		Dur("duration", duration).
		Uint16("bits_per_sample", format.BitsPerSample).
		Uint16("channels", format.NumChannels).
		Uint32("sample_rate", format.SampleRate).
		Int("samples_per_bit", samplesPerBit).
		Msg("wav input")
	if format.AudioFormat != wav.AudioFormatPCM {
		return 0, fmt.Errorf("audio format %d: %w", format.AudioFormat, ErrFormat)
	}
	if format.BitsPerSample != 8 && format.BitsPerSample != 16 {
		return 0, fmt.Errorf("%d bits/sample: %w", format.BitsPerSample, ErrFormat)
	}

	// 8bit PCM is unsigned, 16bit is signed
	mid := 0
	if format.BitsPerSample == 8 {
		mid = 1 << (format.BitsPerSample - 1)
	}
	centre := samplesPerBit / 2

	bw := bufio.NewWriter(wbits)
	index := 0
	count := 0
	for {
		samples, err := reader.ReadSamples(2048)
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		for _, sample := range samples {
			if index%samplesPerBit == centre {
				var bit byte
				if reader.IntValue(sample, 0) > mid {
					bit = 1
				}
				if err := bw.WriteByte(bit); err != nil {
					return count, err
				}
				count++
			}
			index++
		}
	}
	return count, bw.Flush()
}

// Bits2wav writes channel bits as a 1ch 8bit square wave, samplesPerBit
// samples per bit: 255 for one, 0 for zero.
func Bits2wav(w io.Writer, bits []byte, sampleRate, samplesPerBit int) error {
	if samplesPerBit < 1 || sampleRate < 1 {
		return fmt.Errorf("rate %d, samples per bit %d: %w", sampleRate, samplesPerBit, ErrFormat)
	}

	ZERO := make([]wav.Sample, samplesPerBit)
	ONE := make([]wav.Sample, samplesPerBit)
	for i := range ONE {
		ONE[i] = wav.Sample{Values: [2]int{255, 255}}
	}

	numSamples := uint32(len(bits) * samplesPerBit)
	writer := wav.NewWriter(w, numSamples, 1, uint32(sampleRate), 8)
	for _, b := range bits {
		var err error
		if b == 0 {
			err = writer.WriteSamples(ZERO)
		} else {
			err = writer.WriteSamples(ONE)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

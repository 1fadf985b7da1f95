package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ysh86/DPtools/config"
	"github.com/ysh86/DPtools/pipeline"
)

// support 1ch, 8bit only
func main() {
	var inFile, outFile, configFile string
	var syncBytes, rate, spb int

	flag.StringVar(&inFile, "infile", "-", "TAP file to convert")
	flag.StringVar(&outFile, "o", "", "WAV file to write (default: infile.wav)")
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.IntVar(&syncBytes, "sync", -1, "0xFF bytes before and after each record (default: from config)")
	flag.IntVar(&rate, "rate", 0, "sample rate (default: from config)")
	flag.IntVar(&spb, "spb", 0, "samples per channel bit (default: from config)")
	flag.Parse()
	if len(flag.Args()) == 1 {
		inFile = flag.Arg(0)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	log.Logger = log.Logger.Level(cfg.Level())
	if syncBytes >= 0 {
		cfg.SyncBytes = syncBytes
	}
	if rate > 0 {
		cfg.Wav.SampleRate = rate
	}
	if spb > 0 {
		cfg.Wav.SamplesPerBit = spb
	}

	// in
	var f *os.File
	if inFile == "-" {
		f = os.Stdin
		if outFile == "" {
			outFile = "stdin.wav"
		}
	} else {
		f, err = os.Open(inFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", inFile).Msg("failed to open input")
		}
		defer f.Close()
		if outFile == "" {
			outFile = inFile + ".wav"
		}
	}

	// out
	fwav, err := os.Create(outFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", outFile).Msg("failed to create output")
	}
	defer fwav.Close()
	bw := bufio.NewWriter(fwav)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Encode(ctx, bufio.NewReader(f),
		pipeline.WavOutput(bw, cfg.Wav.SampleRate, cfg.Wav.SamplesPerBit),
		pipeline.Options{
			Line:      cfg.Line(),
			SyncBytes: cfg.SyncBytes,
			Logger:    log.Logger,
		})
	if err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
	if err := bw.Flush(); err != nil {
		log.Fatal().Err(err).Str("file", outFile).Msg("failed to write output")
	}
	log.Info().
		Int("records", stats.Records).
		Int("sample_rate", cfg.Wav.SampleRate).
		Int("samples_per_bit", cfg.Wav.SamplesPerBit).
		Str("out", outFile).
		Msg("done")
}

package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ysh86/DPtools/config"
	"github.com/ysh86/DPtools/fm"
	"github.com/ysh86/DPtools/frame"
	"github.com/ysh86/DPtools/pipeline"
	"github.com/ysh86/DPtools/tap"
)

func main() {
	var inFile, outFile, configFile string
	var line int
	var verbose, dryRun bool

	flag.StringVar(&inFile, "infile", "-", "channel bit trace (.txt) or square-wave capture (.wav) to decode")
	flag.StringVar(&outFile, "o", "", "TAP file to write (default: infile.tap)")
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.IntVar(&line, "line", -1, "initial line level 0/1 (default: from config)")
	flag.BoolVar(&verbose, "v", false, "log every marker, frame and invalid pair")
	flag.BoolVar(&dryRun, "n", false, "decode and report only, write no TAP file")
	flag.Parse()
	if len(flag.Args()) == 1 {
		inFile = flag.Arg(0)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	if verbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(cfg.Level())
	}
	initial := cfg.Line()
	if line >= 0 {
		initial = fm.LineOf(byte(line))
	}

	// in
	var f *os.File
	if inFile == "-" {
		f = os.Stdin
		if outFile == "" {
			outFile = "stdin.tap"
		}
	} else {
		f, err = os.Open(inFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", inFile).Msg("failed to open input")
		}
		defer f.Close()
		if outFile == "" {
			outFile = inFile + ".tap"
		}
	}

	var src pipeline.Source
	if strings.HasSuffix(strings.ToLower(inFile), ".wav") {
		src = pipeline.WavSource(f, cfg.Wav.SamplesPerBit, log.Logger)
	} else {
		src = pipeline.TextSource(f)
	}

	// out
	var sink frame.Sink
	var bw *bufio.Writer
	var tw *tap.Writer
	if !dryRun {
		fw, err := os.Create(outFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", outFile).Msg("failed to create output")
		}
		defer fw.Close()
		bw = bufio.NewWriter(fw)
		tw = tap.NewWriter(bw, log.Logger)
		sink = tw
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("in", inFile).Stringer("line", initial).Bool("dry_run", dryRun).Msg("decoding")
	stats, err := pipeline.Decode(ctx, src, sink, pipeline.Options{
		Line:   initial,
		Logger: log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("decode failed")
	}
	if bw != nil {
		if err := bw.Flush(); err != nil {
			log.Fatal().Err(err).Str("file", outFile).Msg("failed to write output")
		}
	}

	ev := log.Info().
		Int("channel_bits", stats.ChannelBits).
		Int("fm_errors", stats.FM.Errors).
		Int("bits", stats.FM.Bits).
		Int("markers", stats.Frame.Markers).
		Int("bytes", stats.Frame.Bytes).
		Int("sync_violations", stats.Frame.SyncViolations).
		Int("records", stats.Records)
	if tw != nil {
		ev = ev.Str("out", outFile).Int64("size", tw.Size())
	}
	ev.Msg("done")
}

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

func main() {
	var inFile, outFile, configFile string
	var syncBytes, columns int

	flag.StringVar(&inFile, "infile", "-", "TAP file to encode")
	flag.StringVar(&outFile, "o", "", "channel bit trace to write (default: infile.txt)")
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.IntVar(&syncBytes, "sync", -1, "0xFF bytes before and after each record (default: from config)")
	flag.IntVar(&columns, "columns", -1, "channel bits per line, 0 for one line (default: from config)")
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
	if columns >= 0 {
		cfg.TextColumns = columns
	}

	// in
	var f *os.File
	if inFile == "-" {
		f = os.Stdin
		if outFile == "" {
			outFile = "stdin.txt"
		}
	} else {
		f, err = os.Open(inFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", inFile).Msg("failed to open input")
		}
		defer f.Close()
		if outFile == "" {
			outFile = inFile + ".txt"
		}
	}

	// out
	fw, err := os.Create(outFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", outFile).Msg("failed to create output")
	}
	defer fw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Encode(ctx, bufio.NewReader(f), pipeline.TextOutput(fw, cfg.TextColumns), pipeline.Options{
		Line:      cfg.Line(),
		SyncBytes: cfg.SyncBytes,
		Logger:    log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
	log.Info().Int("records", stats.Records).Str("out", outFile).Msg("done")
}

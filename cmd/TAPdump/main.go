package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ysh86/DPtools/tap"
)

func dumpData(w io.Writer, data []byte) {
	pos := 0
	for _, b := range data {
		pos++
		fmt.Fprintf(w, " %02x", b)
		if pos&0xf == 0 {
			fmt.Fprintf(w, "\n")
		}
	}
	if pos&0xf != 0 {
		fmt.Fprintf(w, "\n")
	}
}

func describe(w io.Writer, no int, record []byte) {
	kind := tap.Classify(record)
	fmt.Fprintf(w, "%4d: %5d bytes, %s.", no, len(record), kind)

	switch kind {
	case tap.KindFileHeader:
		h, _ := tap.ParseFileHeader(record)
		fmt.Fprintf(w, " file number %d.", h.Number)
		if !h.SizeOK {
			fmt.Fprintf(w, " size should be 4.")
		}
		if !h.Inverted {
			fmt.Fprintf(w, " inverted file number is incorrect.")
		}
		if h.EndOfTape() {
			fmt.Fprintf(w, " end of tape, files beyond this point are probably damaged.")
		}
	case tap.KindNumeric:
		n, err := tap.ParseNumeric(record)
		if err != nil {
			fmt.Fprintf(w, " too short.")
			break
		}
		fmt.Fprintf(w, " load address %05o.", n.LoadAddress)
		if !n.AddressOK {
			fmt.Fprintf(w, " load address corrupted.")
		}
		if !n.ChecksumOK {
			fmt.Fprintf(w, " checksum NOT OK.")
		}
	case tap.KindOther:
		if no == 0 {
			fmt.Fprintf(w, " boot block.")
		}
	}
	fmt.Fprintf(w, "\n")
}

// dump lists every record of a TAP stream and returns the record count.
func dump(w io.Writer, r io.Reader, hex bool) (int, error) {
	tr := tap.NewReader(r)
	no := 0
	for {
		record, err := tr.Next()
		if err == io.EOF {
			return no, nil
		}
		if err != nil {
			return no, err
		}
		describe(w, no, record)
		if hex {
			dumpData(w, record)
		}
		no++
	}
}

func main() {
	var inFile string
	var hex bool

	flag.StringVar(&inFile, "infile", "-", "TAP file to list")
	flag.BoolVar(&hex, "x", false, "hex dump every record")
	flag.Parse()
	if len(flag.Args()) == 1 {
		inFile = flag.Arg(0)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	// in
	var err error
	var f *os.File
	if inFile == "-" {
		f = os.Stdin
	} else {
		f, err = os.Open(inFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", inFile).Msg("failed to open input")
		}
		defer f.Close()
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintf(out, "---- %s ----\n", inFile)
	n, err := dump(out, bufio.NewReader(f), hex)
	fmt.Fprintf(out, "---- EOF: %d records ----\n", n)
	if err != nil {
		out.Flush()
		log.Fatal().Err(err).Int("record", n).Msg("broken TAP stream")
	}
}

// Command ivmap-dump renders an ISetMap or IListMap file as a BED-like text
// stream: one line per interval, "id\ta\tb" (plus "\tpayload" for an
// IListMap), optionally gzip-compressed. The optional-gzip-output pattern is
// grounded on interval.NewBEDUnionFromPath's fileio.DetermineType +
// klauspost/compress/gzip handling of compressed BED input, applied here to
// the output side instead.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/ivmap/ilistmap"
	"github.com/grailbio/ivmap/isetmap"
)

var (
	payloadLen = flag.Int("payload-len", -1, "payload byte width; -1 treats the file as an ISetMap, 0-8 as an IListMap")
	gzipOut    = flag.Bool("gzip", false, "gzip-compress the output stream")
)

func openOutput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func dumpSet(path string, w *bufio.Writer) error {
	m, err := isetmap.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Printf("ivmap-dump: close %s: %v", path, cerr)
		}
	}()
	for _, id := range m.GetIDs() {
		ivs, err := m.GetIntervals(id, false)
		if err != nil {
			return err
		}
		for _, iv := range ivs {
			if _, err := w.WriteString(strconv.FormatUint(uint64(id), 10) + "\t" +
				strconv.FormatUint(uint64(iv.A), 10) + "\t" +
				strconv.FormatUint(uint64(iv.B), 10) + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpList(path string, payloadLen int, w *bufio.Writer) error {
	m, err := ilistmap.Open(path, payloadLen)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Printf("ivmap-dump: close %s: %v", path, cerr)
		}
	}()
	for _, id := range m.GetIDs() {
		entries, err := m.GetIntervalsWithPayload(id, false)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", id, e.A, e.B, e.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		log.Fatal("ivmap-dump: usage: ivmap-dump [-payload-len P] [-gzip] <in-file> [out-file]")
	}
	inPath := flag.Arg(0)
	outPath := ""
	if flag.NArg() == 2 {
		outPath = flag.Arg(1)
	}

	out, err := openOutput(outPath)
	if err != nil {
		log.Fatal(err)
	}
	if out != os.Stdout {
		defer out.Close()
	}

	var rawWriter = bufio.NewWriter(out)
	w := rawWriter
	var gz *gzip.Writer
	if *gzipOut {
		gz = gzip.NewWriter(rawWriter)
		w = bufio.NewWriter(gz)
	}

	if *payloadLen < 0 {
		err = dumpSet(inPath, w)
	} else {
		err = dumpList(inPath, *payloadLen, w)
	}
	if err != nil {
		log.Fatal(err)
	}
	if ferr := w.Flush(); ferr != nil {
		log.Fatal(ferr)
	}
	if gz != nil {
		if cerr := gz.Close(); cerr != nil {
			log.Fatal(cerr)
		}
	}
	if ferr := rawWriter.Flush(); ferr != nil {
		log.Fatal(ferr)
	}
}

// Command ivmap-inspect prints summary statistics for an ISetMap or
// IListMap file: its id count, total interval length, and optionally a
// per-id breakdown, grounded on the teacher repo's bio-bam-gindex's
// stdlib-flag CLI shape (cmd/bio-bam-gindex/main.go).
package main

import (
	"flag"
	"fmt"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/ivmap/ilistmap"
	"github.com/grailbio/ivmap/isetmap"
)

var (
	payloadLen = flag.Int("payload-len", -1, "payload byte width; -1 treats the file as an ISetMap, 0-8 as an IListMap")
	perID      = flag.Bool("per-id", false, "print one line per id in addition to the summary")
)

func inspectSet(path string) error {
	m, err := isetmap.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Printf("ivmap-inspect: close %s: %v", path, cerr)
		}
	}()
	fmt.Printf("file: %s\n", path)
	fmt.Printf("ids: %d\n", m.Len())
	fmt.Printf("sum: %d\n", m.Sum())
	if *perID {
		for _, id := range m.GetIDs() {
			n, err := m.GetIntervalCount(id)
			if err != nil {
				return err
			}
			fmt.Printf("  id=%d count=%d\n", id, n)
		}
	}
	return nil
}

func inspectList(path string, payloadLen int) error {
	m, err := ilistmap.Open(path, payloadLen)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Printf("ivmap-inspect: close %s: %v", path, cerr)
		}
	}()
	fmt.Printf("file: %s\n", path)
	fmt.Printf("ids: %d\n", m.Len())
	fmt.Printf("sum: %d\n", m.Sum(0, 0))
	if *perID {
		for _, id := range m.GetIDs() {
			n, err := m.GetIntervalCount(id, 0, 0)
			if err != nil {
				return err
			}
			fmt.Printf("  id=%d count=%d\n", id, n)
		}
	}
	return nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatal("ivmap-inspect: expected exactly one file path argument")
	}
	path := flag.Arg(0)

	var err error
	if *payloadLen < 0 {
		err = inspectSet(path)
	} else {
		err = inspectList(path, *payloadLen)
	}
	if err != nil {
		log.Fatal(err)
	}
}

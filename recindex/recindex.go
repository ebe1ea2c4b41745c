// Package recindex builds the in-memory id -> (offset, count) index shared
// by isetmap and ilistmap, by a single sequential pass over a mapped
// record stream. It is the ~10% "record index" layer of spec.md's system
// overview.
//
// The scan follows the same shape as encoding/bam/index.go's ReadIndex in
// the teacher repo: walk fixed-width little-endian headers in order,
// validate each one against the remaining buffer length, and fail fast
// with a wrapped sentinel error on truncation rather than panicking or
// reading out of bounds.
package recindex

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/ivmap"
)

const headerSize = 8 // id:u32le n:u32le

// snapshot sidecar format: ".ividx" next to the source file, snappy-framed.
// It exists purely to skip the linear scan in Build on a later Open of the
// same file; deleting it (or letting it go stale) only costs a rescan, never
// correctness, since BuildOrLoad validates it against the source file's size
// and mtime before trusting it.
const (
	snapshotSuffix = ".ividx"
	snapshotMagic  = "IVIX"
	snapshotVer    = 1
)

// Entry describes one record's interval array: its byte offset into the
// mapped file and the number of fixed-width interval slots at that offset.
// MaxLen is the longest (b-a) among the record's entries; ilistmap uses it
// to clamp a caller-supplied search_window (spec.md §9).
type Entry struct {
	Offset int
	Count  uint32
	MaxLen uint32
}

// Index is the parsed id -> Entry map for one open file, plus the sorted
// list of ids it contains.
type Index struct {
	byID map[uint32]Entry
	ids  []uint32
}

// lenAt, when non-nil, returns the length (b-a) of the k-th interval in a
// record whose first interval starts at byte offset off within data, so
// Build can track each record's MaxLen without the caller re-scanning.
// ISetMap and IListMap pass their own because the stride (and therefore the
// byte layout of an interval) differs between them.
type lenAt func(data []byte, off int, k int) uint32

// Build performs the single linear pass described in spec.md §4.1. stride
// is the byte width of one interval slot (8 for ISetMap, 8+P for
// IListMap). measure, if non-nil, is called once per interval to compute
// its length for the MaxLen bookkeeping; passing nil skips that bookkeeping
// (isetmap doesn't need it).
//
// Duplicate ids are tolerated: per spec.md §9 this implementation documents
// and applies "last-wins" — a later record for the same id simply
// overwrites the earlier map entry, so has_id / get_interval_count / the
// read accessors all observe only the last write.
func Build(data []byte, stride int, measure lenAt) (*Index, error) {
	byID := make(map[uint32]Entry)
	off := 0
	n := len(data)
	for off < n {
		if off+headerSize > n {
			return nil, errors.Wrapf(ivmap.ErrMalformedFile, "truncated record header at offset %d", off)
		}
		id := binary.LittleEndian.Uint32(data[off:])
		count := binary.LittleEndian.Uint32(data[off+4:])
		off += headerSize

		arrayLen := int(count) * stride
		if stride != 0 && arrayLen/stride != int(count) {
			return nil, errors.Wrapf(ivmap.ErrMalformedFile, "interval count %d overflows record size at offset %d", count, off)
		}
		if off+arrayLen > n {
			return nil, errors.Wrapf(ivmap.ErrMalformedFile, "record for id %d extends past EOF (offset %d, count %d, stride %d, file size %d)", id, off, count, stride, n)
		}

		entry := Entry{Offset: off, Count: count}
		if measure != nil {
			var maxLen uint32
			for k := 0; k < int(count); k++ {
				if l := measure(data, off, k); l > maxLen {
					maxLen = l
				}
			}
			entry.MaxLen = maxLen
		}

		if _, dup := byID[id]; dup {
			log.Printf("recindex: duplicate id %d in file, keeping the later record (last-wins)", id)
		}
		byID[id] = entry

		off += arrayLen
	}

	ids := make([]uint32, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &Index{byID: byID, ids: ids}, nil
}

// Len returns the number of distinct ids in the index.
func (x *Index) Len() int {
	return len(x.ids)
}

// IDs returns the ids in ascending order. The returned slice is owned by
// the caller.
func (x *Index) IDs() []uint32 {
	out := make([]uint32, len(x.ids))
	copy(out, x.ids)
	return out
}

// Has reports whether id is present in the index.
func (x *Index) Has(id uint32) bool {
	_, ok := x.byID[id]
	return ok
}

// Get returns the Entry for id, or (Entry{}, false) if absent.
func (x *Index) Get(id uint32) (Entry, bool) {
	e, ok := x.byID[id]
	return e, ok
}

// BuildOrLoad is Build plus the optional snapshot cache described in
// SPEC_FULL.md's "index snapshot cache" feature: a snappy-compressed sidecar
// file, named path+".ividx", holding the id -> (offset, count, maxLen)
// triples from a prior Build of the same source file. If the sidecar exists
// and its recorded source size and mtime still match path on disk, it is
// trusted and the linear scan is skipped entirely; otherwise BuildOrLoad
// falls back to Build and (best-effort) writes a fresh sidecar for next
// time. The externally observable result is identical either way — a
// sidecar read failure or write failure never fails the Open, it only costs
// the scan.
func BuildOrLoad(path string, data []byte, stride int, measure lenAt) (*Index, error) {
	fi, statErr := os.Stat(path)
	if statErr == nil {
		if idx, ok := loadSnapshot(path, fi); ok {
			return idx, nil
		}
	}

	idx, err := Build(data, stride, measure)
	if err != nil {
		return nil, err
	}

	if statErr == nil {
		if err := writeSnapshot(path, fi, idx); err != nil {
			log.Printf("recindex: not writing index snapshot for %s: %v", path, err)
		}
	}
	return idx, nil
}

func snapshotPath(path string) string {
	return path + snapshotSuffix
}

// loadSnapshot reports ok=false on any mismatch or error, including a
// missing sidecar — the caller always has Build as a correct fallback.
func loadSnapshot(path string, fi os.FileInfo) (*Index, bool) {
	f, err := os.Open(snapshotPath(path))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := snappy.NewReader(bufio.NewReader(f))

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || string(magic[:]) != snapshotMagic {
		return nil, false
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != snapshotVer {
		return nil, false
	}
	var sourceSize uint64
	var sourceModNano int64
	if err := binary.Read(r, binary.LittleEndian, &sourceSize); err != nil {
		return nil, false
	}
	if err := binary.Read(r, binary.LittleEndian, &sourceModNano); err != nil {
		return nil, false
	}
	if sourceSize != uint64(fi.Size()) || sourceModNano != fi.ModTime().UnixNano() {
		return nil, false
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, false
	}

	byID := make(map[uint32]Entry, count)
	ids := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		var id uint32
		var offset uint64
		var entry Entry
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, false
		}
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return nil, false
		}
		if err := binary.Read(r, binary.LittleEndian, &entry.Count); err != nil {
			return nil, false
		}
		if err := binary.Read(r, binary.LittleEndian, &entry.MaxLen); err != nil {
			return nil, false
		}
		entry.Offset = int(offset)
		byID[id] = entry
		ids = append(ids, id)
	}
	// ids were written in ascending order by writeSnapshot; a corrupt or
	// hand-edited sidecar that violates that is simply rejected.
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return nil, false
		}
	}

	return &Index{byID: byID, ids: ids}, true
}

// writeSnapshot never produces a file on a partial write: it builds the
// sidecar under a temp name and renames it into place, so a reader only ever
// sees a complete snapshot or none at all.
func writeSnapshot(path string, fi os.FileInfo, idx *Index) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ividx-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		tmp.Close()
		if !succeeded {
			os.Remove(tmpName)
		}
	}()

	w := snappy.NewBufferedWriter(tmp)

	if _, err := w.Write([]byte(snapshotMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(snapshotVer)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(fi.Size())); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, fi.ModTime().UnixNano()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(idx.ids))); err != nil {
		return err
	}
	for _, id := range idx.ids {
		e := idx.byID[id]
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(e.Offset)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, e.Count); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, e.MaxLen); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, snapshotPath(path)); err != nil {
		return err
	}
	succeeded = true
	return nil
}

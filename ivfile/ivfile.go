// Package ivfile maps a file read-only into the process's address space and
// hands back the raw bytes. It is the ~10% "leaf" layer described in
// spec.md's system overview: no record parsing, no interval semantics, just
// an open []byte and a Close.
//
// The mapping primitive is golang.org/x/sys/unix.Mmap, the same call
// fusion/kmer_index.go in the teacher repo uses for its (anonymous,
// huge-paged) k-mer table; here it is used in its more ordinary file-backed,
// read-only form.
package ivfile

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// File is a read-only memory mapping of a file's contents. The zero value is
// not usable; construct one with Open.
//
// A *File may be shared freely across goroutines: Bytes returns the same
// backing array to every caller, and reading through it never mutates
// shared state.
type File struct {
	fd     int
	data   []byte
	mapped bool
}

// Open maps path read-only. Zero-byte files are valid and yield a File whose
// Bytes() is empty; mmap itself rejects zero-length mappings, so that case
// is handled by never calling it.
func Open(path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "ivfile: open %s", path)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "ivfile: stat %s", path)
	}

	size := stat.Size
	if size == 0 {
		return &File{fd: fd, data: nil, mapped: false}, nil
	}
	if size < 0 || size > int64(^uint(0)>>1) {
		_ = unix.Close(fd)
		return nil, errors.Errorf("ivfile: %s has implausible size %d", path, size)
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "ivfile: mmap %s", path)
	}

	// The mapping is read-only and the process never resizes the
	// underlying file out from under itself, so sequential-access advice
	// is safe and typically helps the first linear index-building pass.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &File{fd: fd, data: data, mapped: true}, nil
}

// Bytes returns the mapped contents. The returned slice is valid until
// Close is called; callers that need data to outlive the File must copy it.
func (f *File) Bytes() []byte {
	return f.data
}

// Close unmaps the file (if anything was mapped) and closes the underlying
// file descriptor. Close must be called at most once; a second call closes
// the same file descriptor number again.
func (f *File) Close() error {
	var err error
	if f.mapped {
		if uerr := unix.Munmap(f.data); uerr != nil {
			err = errors.Wrap(uerr, "ivfile: munmap")
		}
		f.data = nil
		f.mapped = false
	}
	if cerr := unix.Close(f.fd); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "ivfile: close")
	}
	return err
}

package ivformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/ivmap"
	"github.com/grailbio/ivmap/ilistmap"
	"github.com/grailbio/ivmap/isetmap"
)

func TestSetWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.isetmap")

	w, err := NewSetWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(7, []ivmap.Interval{{A: 0, B: 10}, {A: 20, B: 30}}))
	require.NoError(t, w.Write(3, nil))
	require.NoError(t, w.Close())

	m, err := isetmap.Open(path)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, 2, m.Len())
	n, err := m.GetIntervalCount(7)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	n, err = m.GetIntervalCount(3)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestSetWriterRejectsInvalidInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.isetmap")
	w, err := NewSetWriter(path, false)
	require.NoError(t, err)
	defer w.Close()

	err = w.Write(1, []ivmap.Interval{{A: 10, B: 10}})
	require.ErrorIs(t, err, ivmap.ErrInvalidArgument)
}

func TestSetWriterAppendMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.isetmap")

	w, err := NewSetWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(1, []ivmap.Interval{{A: 0, B: 5}}))
	require.NoError(t, w.Close())

	w, err = NewSetWriter(path, true)
	require.NoError(t, err)
	require.NoError(t, w.Write(2, []ivmap.Interval{{A: 0, B: 5}}))
	require.NoError(t, w.Close())

	m, err := isetmap.Open(path)
	require.NoError(t, err)
	defer m.Close()
	require.Equal(t, 2, m.Len())
}

func TestListWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ilistmap")

	w, err := NewListWriter(path, 2, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(1, []ListEntry{{A: 0, B: 10, Payload: 0x1234}}))
	require.NoError(t, w.Close())

	m, err := ilistmap.Open(path, 2)
	require.NoError(t, err)
	defer m.Close()

	entries, err := m.GetIntervalsWithPayload(1, false)
	require.NoError(t, err)
	require.Equal(t, []ilistmap.Entry{{A: 0, B: 10, Payload: 0x1234}}, entries)
}

func TestListWriterRejectsOversizedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ilistmap")
	w, err := NewListWriter(path, 1, false)
	require.NoError(t, err)
	defer w.Close()

	err = w.Write(1, []ListEntry{{A: 0, B: 10, Payload: 256}})
	require.ErrorIs(t, err, ivmap.ErrInvalidArgument)
}

func TestListWriterRejectsBadPayloadLen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ilistmap")
	_, err := NewListWriter(path, -1, false)
	require.ErrorIs(t, err, ivmap.ErrInvalidArgument)
}

func TestEmptyFileIsValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.isetmap")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	m, err := isetmap.Open(path)
	require.NoError(t, err)
	defer m.Close()
	require.Equal(t, 0, m.Len())
}

package ilistmap

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/ivmap"
)

type fixtureEntry struct {
	a, b    uint32
	payload uint64
}

func writeFixture(t *testing.T, payloadLen int, records map[uint32][]fixtureEntry) string {
	t.Helper()
	var buf bytes.Buffer
	ids := make([]uint32, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	for _, id := range ids {
		entries := records[id]
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, id))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(entries))))
		for _, e := range entries {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, e.a))
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, e.b))
			for i := 0; i < payloadLen; i++ {
				buf.WriteByte(byte(e.payload >> (8 * uint(i))))
			}
		}
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.ilistmap")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func ivs(pairs ...[2]uint32) []ivmap.Interval {
	out := make([]ivmap.Interval, len(pairs))
	for i, p := range pairs {
		out[i] = ivmap.Interval{A: p[0], B: p[1]}
	}
	return out
}

// TestScenarioS3 pins spec.md §8 scenario S3.
func TestScenarioS3(t *testing.T) {
	path := writeFixture(t, 1, map[uint32][]fixtureEntry{
		1: {{0, 10, 0x01}, {5, 15, 0x02}, {12, 20, 0x01}},
	})
	m, err := Open(path, 1)
	require.NoError(t, err)
	defer m.Close()

	got, err := m.Intersect(1, ivs([2]uint32{0, 100}), 0xFF, 0x01, false)
	require.NoError(t, err)
	require.Equal(t, ivs([2]uint32{0, 10}, [2]uint32{12, 20}), got)

	sum, err := m.IntersectSum(1, ivs([2]uint32{0, 100}), 0xFF, 0x01, false)
	require.NoError(t, err)
	require.EqualValues(t, 18, sum)

	ok, err := m.IsContained(1, 11, 0xFF, 0x01, false, 15)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetIntervalsWithPayload(t *testing.T) {
	path := writeFixture(t, 1, map[uint32][]fixtureEntry{
		1: {{0, 10, 0x01}, {5, 15, 0x02}},
	})
	m, err := Open(path, 1)
	require.NoError(t, err)
	defer m.Close()

	entries, err := m.GetIntervalsWithPayload(1, false)
	require.NoError(t, err)
	require.Equal(t, []Entry{{A: 0, B: 10, Payload: 0x01}, {A: 5, B: 15, Payload: 0x02}}, entries)
}

func TestGetIntervalCountMaskFilter(t *testing.T) {
	path := writeFixture(t, 1, map[uint32][]fixtureEntry{
		1: {{0, 10, 0x01}, {5, 15, 0x02}, {20, 30, 0x01}},
	})
	m, err := Open(path, 1)
	require.NoError(t, err)
	defer m.Close()

	n, err := m.GetIntervalCount(1, 0xFF, 0x01)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = m.GetIntervalCount(1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestIsContainedNoPayload(t *testing.T) {
	path := writeFixture(t, 0, map[uint32][]fixtureEntry{
		1: {{0, 10, 0}, {100, 130, 0}},
	})
	m, err := Open(path, 0)
	require.NoError(t, err)
	defer m.Close()

	ok, err := m.IsContained(1, 120, 0, 0, false, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.IsContained(1, 99, 0, 0, false, 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSumAcrossIDsAdmittedOnly(t *testing.T) {
	path := writeFixture(t, 1, map[uint32][]fixtureEntry{
		1: {{0, 10, 0x01}, {10, 20, 0x02}},
		2: {{0, 5, 0x01}},
	})
	m, err := Open(path, 1)
	require.NoError(t, err)
	defer m.Close()

	require.EqualValues(t, 15, m.Sum(0xFF, 0x01))
}

func TestOpenRejectsBadPayloadLen(t *testing.T) {
	path := writeFixture(t, 0, nil)
	_, err := Open(path, 9)
	require.ErrorIs(t, err, ivmap.ErrInvalidArgument)
}

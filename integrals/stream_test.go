package integrals

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MirzaevaIV/goHF/symblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecords = []Record{
	{0, 0, 0, 0, 1.0},
	{1, 0, 0, 0, 0.1},
	{1, 1, 0, 0, 0.5},
	{1, 0, 1, 0, 0.2},
	{2, 2, 1, 1, 0.3},
}

func TestSliceStreamChunks(t *testing.T) {
	s := NewSliceStream(testRecords, 2)
	var sizes []int
	var lastSeen bool
	for !lastSeen {
		buf, last, err := s.Next()
		require.NoError(t, err)
		sizes = append(sizes, len(buf))
		lastSeen = last
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)

	_, _, err := s.Next()
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestSliceStreamEmpty(t *testing.T) {
	got, err := ReadAll(NewSliceStream(nil, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, testRecords))

	fname := filepath.Join(t.TempDir(), "tei.dat")
	content := "# synthetic integrals\n\n" + buf.String()
	require.NoError(t, os.WriteFile(fname, []byte(content), 0644))

	s, err := OpenFile(fname, 3)
	require.NoError(t, err)
	got, err := ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, testRecords, got)
}

func TestFileStreamBadLine(t *testing.T) {
	s := NewReaderStream(strings.NewReader("0 0 0 0 1.0\n0 0 x 0 1.0\n"), 10)
	_, _, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSOMap(t *testing.T) {
	m := NewSOMap(symblock.Dims{2, 0, 3})
	assert.Equal(t, 5, m.NSO())
	assert.Equal(t, 0, m.Irrep(1))
	assert.Equal(t, 2, m.Irrep(2))
	assert.Equal(t, 0, m.Local(2))
	assert.Equal(t, 2, m.Local(4))
	assert.Equal(t, 4, m.Global(2, 2))
	assert.NoError(t, m.Check(Record{4, 3, 2, 1, 0}))
	assert.Error(t, m.Check(Record{5, 0, 0, 0, 0}))
}

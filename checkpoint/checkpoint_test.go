package checkpoint

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MirzaevaIV/goHF/symblock"
)

var labels = []string{"A1", "A2", "B1", "B2"}

func testEpsilon() *symblock.Vector {
	eps := symblock.NewVector("eps", symblock.Dims{3, 0, 2, 1})
	for h, vals := range [][]float64{{-2.0, -0.4, 0.8}, {}, {-1.1, 0.3}, {-0.5}} {
		for i, v := range vals {
			eps.Set(h, i, v)
		}
	}
	return eps
}

func testRecord() *Record {
	eps := testEpsilon()
	c := symblock.NewMatrixFromBlocks("C", [][][]float64{
		{{1, 0, 0}, {0, 0.6, 0.8}, {0, 0.8, -0.6}},
		{},
		{{1, 0}, {0, 1}},
		{{1}},
	})
	doccpi, soccpi := []int{1, 0, 1, 0}, []int{0, 0, 0, 1}
	orbs := SortOrbitals(eps, labels, doccpi, soccpi)
	return &Record{
		RunID:           NewRunID(),
		Reference:       "ROHF",
		TotalEnergy:     -74.96,
		ReferenceEnergy: -74.96,
		Labels:          labels,
		Orbspi:          []int{3, 0, 2, 1},
		Doccpi:          doccpi,
		Soccpi:          soccpi,
		Frzcpi:          FrozenPerIrrep(orbs, 4, 1, false),
		Frzvpi:          FrozenPerIrrep(orbs, 4, 0, true),
		IOpen:           OpenShellCode(soccpi),
		Orbitals:        orbs,
		Epsilon:         VectorBlocks(eps),
		C:               Blocks(c),
		Feff:            Blocks(c),
	}
}

func TestSortOrbitals(t *testing.T) {
	orbs := SortOrbitals(testEpsilon(), labels, []int{1, 0, 1, 0}, []int{0, 0, 0, 1})
	require.Len(t, orbs, 6)

	var energies []float64
	var occ []int
	for _, o := range orbs {
		energies = append(energies, o.Energy)
		occ = append(occ, o.Occupation)
	}
	assert.Equal(t, []float64{-2.0, -1.1, -0.5, -0.4, 0.3, 0.8}, energies)
	assert.Equal(t, []int{2, 2, 1, 0, 0, 0}, occ)
	assert.Equal(t, "B1", orbs[1].Label)
	assert.Equal(t, 3, orbs[2].Irrep)
}

func TestFrozenPerIrrep(t *testing.T) {
	orbs := SortOrbitals(testEpsilon(), labels, []int{1, 0, 1, 0}, []int{0, 0, 0, 1})
	assert.Equal(t, []int{1, 0, 1, 0}, FrozenPerIrrep(orbs, 4, 2, false))
	assert.Equal(t, []int{1, 0, 1, 0}, FrozenPerIrrep(orbs, 4, 2, true))
	assert.Equal(t, []int{3, 0, 2, 1}, FrozenPerIrrep(orbs, 4, 100, false))
	assert.Equal(t, []int{0, 0, 0, 0}, FrozenPerIrrep(orbs, 4, 0, true))
}

func TestOpenShellCode(t *testing.T) {
	assert.Equal(t, 0, OpenShellCode([]int{0, 0}))
	assert.Equal(t, 2, OpenShellCode([]int{0, 2}))
	assert.Equal(t, 6, OpenShellCode([]int{1, 0, 1}))
}

func TestYAMLRoundTrip(t *testing.T) {
	rec := testRecord()
	_, err := uuid.Parse(rec.RunID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run", "scf.yaml")
	require.NoError(t, YAMLFile{Path: path}.Save(rec))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, back.RunID)
	assert.Equal(t, rec.TotalEnergy, back.TotalEnergy)
	assert.Equal(t, rec.Doccpi, back.Doccpi)
	assert.Equal(t, rec.Orbitals, back.Orbitals)
	assert.Equal(t, 2, back.IOpen)

	c, err := back.Coefficients(symblock.Dims{3, 0, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.8, c.At(0, 1, 2))
	assert.Nil(t, c.Block(1))
}

func TestCoefficientsMismatch(t *testing.T) {
	rec := testRecord()
	_, err := rec.Coefficients(symblock.Dims{3, 0, 2, 2})
	assert.True(t, errors.Is(err, ErrRestartMismatch))

	rec.C[2] = rec.C[2][:1]
	_, err = rec.Coefficients(symblock.Dims{3, 0, 2, 1})
	assert.True(t, errors.Is(err, ErrRestartMismatch))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	var m Memory
	assert.Nil(t, m.Last())
	rec := testRecord()
	require.NoError(t, m.Save(rec))
	assert.Same(t, rec, m.Last())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, testRecord(), true))
	out := buf.String()

	assert.Contains(t, out, "Final DOCC vector = ( 1  A1  0  A2  1  B1  0  B2)")
	assert.Contains(t, out, "Final SOCC vector = ( 0  A1  0  A2  0  B1  1  B2)")
	assert.Contains(t, out, "Doubly occupied orbitals\n")
	assert.Contains(t, out, "-2.000000  A1     -1.100000  B1")
	assert.Contains(t, out, "Singly occupied orbitals\n         -0.500000  B2")
	assert.Contains(t, out, "Molecular orbitals:")
	assert.NotContains(t, out, "Irrep: A2")

	// unoccupied orbitals: three of them, all on one line
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		if strings.Contains(l, "Unoccupied orbitals") {
			assert.Equal(t, 3, strings.Count(lines[i+1], "."))
		}
	}
}

package system

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MirzaevaIV/goHF/symblock"
)

const twoIrreps = `# two orbitals, one per irrep
irreps A B
dims 1 1
electrons 3
nuclear_repulsion 0.5
overlap
  0 0 0 1.0
  1 0 0 1.0
end
hamiltonian
  0 0 0 -2.0   # closed
  1 0 0 -1.0
end
`

func TestParse(t *testing.T) {
	sys, err := Parse(strings.Split(twoIrreps, "\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sys.Labels)
	assert.Equal(t, symblock.Dims{1, 1}, sys.Dims)
	assert.Equal(t, 3, sys.Electrons)
	assert.Equal(t, 0.5, sys.NuclearRepulsion)
	assert.Equal(t, -2.0, sys.H.At(0, 0, 0))
	assert.Equal(t, -1.0, sys.H.At(1, 0, 0))
	assert.Equal(t, 2, sys.NSO())
}

func TestParseSymmetricFill(t *testing.T) {
	in := `dims 2
electrons 2
nuclear_repulsion 0
overlap
0 0 0 1
0 1 1 1
0 1 0 0.25
end
hamiltonian
0 0 0 -1
end`
	sys, err := Parse(strings.Split(in, "\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Irrep1"}, sys.Labels)
	assert.Equal(t, 0.25, sys.S.At(0, 0, 1))
	assert.Equal(t, 0.25, sys.S.At(0, 1, 0))
	assert.Equal(t, 0.0, sys.H.At(0, 1, 1))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no dims", "electrons 2\nnuclear_repulsion 0\noverlap\nend\nhamiltonian\nend"},
		{"bad dim", "dims 2 x"},
		{"label count", "irreps A\ndims 1 1\nelectrons 2\nnuclear_repulsion 0\noverlap\n0 0 0 1\n1 0 0 1\nend\nhamiltonian\nend"},
		{"missing electrons", "dims 1\nnuclear_repulsion 0\noverlap\n0 0 0 1\nend\nhamiltonian\nend"},
		{"missing nuclear repulsion", "dims 1\nelectrons 2\noverlap\n0 0 0 1\nend\nhamiltonian\nend"},
		{"unterminated block", "dims 1\nelectrons 2\nnuclear_repulsion 0\noverlap\n0 0 0 1"},
		{"element out of range", "dims 1\nelectrons 2\nnuclear_repulsion 0\noverlap\n0 1 0 1\nend\nhamiltonian\nend"},
		{"short element", "dims 1\nelectrons 2\nnuclear_repulsion 0\noverlap\n0 0 1\nend\nhamiltonian\nend"},
		{"zero overlap diagonal", "dims 1\nelectrons 2\nnuclear_repulsion 0\noverlap\nend\nhamiltonian\nend"},
		{"unknown keyword", "basis sto-3g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.Split(tt.input, "\n"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))
		})
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	sys := Synthetic([]string{"A1", "A2", "B1", "B2"}, symblock.Dims{3, 0, 2, 2}, 9, 4)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sys))

	path := filepath.Join(t.TempDir(), "sys.inp")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	back, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, sys.Labels, back.Labels)
	assert.Equal(t, sys.Dims, back.Dims)
	assert.Equal(t, sys.Electrons, back.Electrons)
	assert.Equal(t, sys.NuclearRepulsion, back.NuclearRepulsion)
	for h, n := range sys.Dims {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.Equal(t, sys.S.At(h, i, j), back.S.At(h, i, j))
				assert.Equal(t, sys.H.At(h, i, j), back.H.At(h, i, j))
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.inp"))
	assert.Error(t, err)
}

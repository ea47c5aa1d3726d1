// checkpoint.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------

// Package checkpoint stores the converged wavefunction of an SCF run and
// reads it back as a restart guess.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/MirzaevaIV/goHF/symblock"
)

// ErrRestartMismatch is returned when a checkpoint does not fit the system.
var ErrRestartMismatch = errors.New("checkpoint: restart does not match system")

// Orbital is one entry of the energy-ordered orbital list.
type Orbital struct {
	Energy float64 `yaml:"energy"`
	Irrep  int     `yaml:"irrep"`
	Label  string  `yaml:"label"`
	// Occupation is 2, 1 or 0.
	Occupation int `yaml:"occupation"`
}

// Record is the persisted result of a converged run.
type Record struct {
	RunID     string `yaml:"run_id"`
	Reference string `yaml:"reference"`

	TotalEnergy      float64 `yaml:"total_energy"`
	ReferenceEnergy  float64 `yaml:"reference_energy"`
	NuclearRepulsion float64 `yaml:"nuclear_repulsion"`
	Iterations       int     `yaml:"iterations"`

	Labels []string `yaml:"labels"`
	Orbspi []int    `yaml:"orbspi"`
	Doccpi []int    `yaml:"doccpi"`
	Soccpi []int    `yaml:"soccpi"`
	Frzcpi []int    `yaml:"frzcpi"`
	Frzvpi []int    `yaml:"frzvpi"`
	IOpen  int      `yaml:"iopen"`

	Orbitals []Orbital `yaml:"orbitals"`

	Epsilon [][]float64   `yaml:"epsilon"`
	C       [][][]float64 `yaml:"c"`
	Feff    [][][]float64 `yaml:"feff"`
}

// Sink persists a final record.
type Sink interface {
	Save(rec *Record) error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New().String() }

// Blocks copies a blocked matrix into nested slices.
func Blocks(m *symblock.Matrix) [][][]float64 {
	dims := m.Dims()
	res := make([][][]float64, len(dims))
	for h, n := range dims {
		res[h] = make([][]float64, n)
		for i := 0; i < n; i++ {
			res[h][i] = make([]float64, n)
			for j := 0; j < n; j++ {
				res[h][i][j] = m.At(h, i, j)
			}
		}
	}
	return res
}

// VectorBlocks copies a blocked vector into nested slices.
func VectorBlocks(v *symblock.Vector) [][]float64 {
	res := make([][]float64, v.NIrrep())
	for h := range res {
		res[h] = append([]float64{}, v.Block(h)...)
	}
	return res
}

// SortOrbitals lists every orbital in ascending energy with its irrep label
// and occupation. Occupations follow the same ordering the occupation
// selector uses, so the first sum(doccpi) entries are doubly occupied.
func SortOrbitals(eps *symblock.Vector, labels []string, doccpi, soccpi []int) []Orbital {
	var orbs []Orbital
	for h := 0; h < eps.NIrrep(); h++ {
		for _, e := range eps.Block(h) {
			orbs = append(orbs, Orbital{Energy: e, Irrep: h, Label: labels[h]})
		}
	}
	slices.SortStableFunc(orbs, func(a, b Orbital) int {
		switch {
		case a.Energy < b.Energy:
			return -1
		case a.Energy > b.Energy:
			return 1
		}
		return 0
	})
	ndocc, nsocc := sum(doccpi), sum(soccpi)
	for i := range orbs {
		switch {
		case i < ndocc:
			orbs[i].Occupation = 2
		case i < ndocc+nsocc:
			orbs[i].Occupation = 1
		}
	}
	return orbs
}

// FrozenPerIrrep distributes the n lowest (highest when fromTop) orbitals of
// the energy-ordered list over irreps.
func FrozenPerIrrep(orbs []Orbital, nirrep, n int, fromTop bool) []int {
	res := make([]int, nirrep)
	if n > len(orbs) {
		n = len(orbs)
	}
	for k := 0; k < n; k++ {
		idx := k
		if fromTop {
			idx = len(orbs) - 1 - k
		}
		res[orbs[idx].Irrep]++
	}
	return res
}

// OpenShellCode returns nopen·(nopen+1), nopen being the number of irreps
// with singly occupied orbitals.
func OpenShellCode(soccpi []int) int {
	nopen := 0
	for _, n := range soccpi {
		if n > 0 {
			nopen++
		}
	}
	return nopen * (nopen + 1)
}

// Coefficients rebuilds the MO coefficients for a restart with the given
// blocking.
func (r *Record) Coefficients(dims symblock.Dims) (*symblock.Matrix, error) {
	if !symblock.Dims(r.Orbspi).Equal(dims) {
		return nil, fmt.Errorf("%w: orbitals per irrep %v, system has %v", ErrRestartMismatch, r.Orbspi, dims)
	}
	if len(r.C) != len(dims) {
		return nil, fmt.Errorf("%w: %d coefficient blocks for %d irreps", ErrRestartMismatch, len(r.C), len(dims))
	}
	for h, n := range dims {
		if len(r.C[h]) != n {
			return nil, fmt.Errorf("%w: irrep %d has %d coefficient rows, want %d", ErrRestartMismatch, h, len(r.C[h]), n)
		}
		for i, row := range r.C[h] {
			if len(row) != n {
				return nil, fmt.Errorf("%w: irrep %d row %d has %d columns, want %d", ErrRestartMismatch, h, i, len(row), n)
			}
		}
	}
	return symblock.NewMatrixFromBlocks("MO coefficients (restart)", r.C), nil
}

// YAMLFile writes records to a YAML file.
type YAMLFile struct {
	Path string
}

func (f YAMLFile) Save(rec *Record) error {
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load reads a checkpoint written by YAMLFile.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", path, err)
	}
	return &rec, nil
}

// Memory keeps saved records, for tests and in-process restarts.
type Memory struct {
	Records []*Record
}

func (m *Memory) Save(rec *Record) error {
	m.Records = append(m.Records, rec)
	return nil
}

// Last returns the most recent record or nil.
func (m *Memory) Last() *Record {
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}

func sum(v []int) int {
	res := 0
	for _, n := range v {
		res += n
	}
	return res
}

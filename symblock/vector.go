// vector.go --  This file is part of goHF project.
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
package symblock

import (
	"fmt"
	"strings"
)

// Vector is a symmetry-blocked vector, typically orbital energies.
type Vector struct {
	Name   string
	dims   Dims
	blocks [][]float64
}

// NewVector allocates a zero vector with the given blocking.
func NewVector(name string, dims Dims) *Vector {
	v := &Vector{
		Name:   name,
		dims:   append(Dims(nil), dims...),
		blocks: make([][]float64, len(dims)),
	}
	for h, n := range dims {
		v.blocks[h] = make([]float64, n)
	}
	return v
}

// Dims returns a copy of the dimension table.
func (v *Vector) Dims() Dims { return append(Dims(nil), v.dims...) }

// NIrrep returns the number of blocks.
func (v *Vector) NIrrep() int { return len(v.dims) }

// At returns element i of block h.
func (v *Vector) At(h, i int) float64 { return v.blocks[h][i] }

// Set sets element i of block h.
func (v *Vector) Set(h, i int, val float64) { v.blocks[h][i] = val }

// Block returns the backing slice of irrep h.
func (v *Vector) Block(h int) []float64 { return v.blocks[h] }

// Copy overwrites v with src.
func (v *Vector) Copy(src *Vector) {
	if !v.dims.Equal(src.dims) {
		panic(fmt.Sprintf("symblock: dimension mismatch %v vs %v", v.dims, src.dims))
	}
	for h := range v.blocks {
		copy(v.blocks[h], src.blocks[h])
	}
}

// Flatten returns all elements irrep by irrep.
func (v *Vector) Flatten() []float64 {
	res := make([]float64, 0, v.dims.Total())
	for _, b := range v.blocks {
		res = append(res, b...)
	}
	return res
}

func (v *Vector) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  ## %s ##\n", v.Name)
	for h, b := range v.blocks {
		fmt.Fprintf(&sb, "  Irrep: %d\n", h+1)
		for i, x := range b {
			fmt.Fprintf(&sb, "    %3d %16.10f\n", i+1, x)
		}
	}
	return sb.String()
}

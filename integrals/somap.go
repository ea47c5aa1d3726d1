// somap.go --  This file is part of goHF project.
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
package integrals

import (
	"fmt"

	"github.com/MirzaevaIV/goHF/symblock"
)

// SOMap translates global SO indices to (irrep, local index) and back.
// SOs are numbered irrep block by irrep block.
type SOMap struct {
	dims    symblock.Dims
	offsets []int
	irrep   []int
	local   []int
}

// NewSOMap builds the lookup tables for a dimension table.
func NewSOMap(dims symblock.Dims) *SOMap {
	m := &SOMap{
		dims:    append(symblock.Dims(nil), dims...),
		offsets: dims.Offsets(),
	}
	for h, n := range dims {
		for i := 0; i < n; i++ {
			m.irrep = append(m.irrep, h)
			m.local = append(m.local, i)
		}
	}
	return m
}

// NSO returns the number of symmetry orbitals.
func (m *SOMap) NSO() int { return len(m.irrep) }

// Dims returns the dimension table the map was built from.
func (m *SOMap) Dims() symblock.Dims { return append(symblock.Dims(nil), m.dims...) }

// Irrep returns the irrep of SO so.
func (m *SOMap) Irrep(so int) int { return m.irrep[so] }

// Local returns the index of SO so inside its irrep.
func (m *SOMap) Local(so int) int { return m.local[so] }

// Global returns the SO index of local orbital i in irrep h.
func (m *SOMap) Global(h, i int) int { return m.offsets[h] + i }

// Check verifies that every label of r is a valid SO index.
func (m *SOMap) Check(r Record) error {
	for _, so := range [4]int{r.I, r.J, r.K, r.L} {
		if so < 0 || so >= len(m.irrep) {
			return fmt.Errorf("integrals: label %d of %v outside [0,%d)", so, r, len(m.irrep))
		}
	}
	return nil
}

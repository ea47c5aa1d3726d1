// synthetic.go --  This file is part of goHF project.
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
package system

import (
	"math/rand"

	"github.com/MirzaevaIV/goHF/symblock"
)

// Synthetic builds a diagonally dominant overlap and a core Hamiltonian with
// well separated diagonal levels, suitable for smoke runs with
// integrals.Synthetic.
func Synthetic(labels []string, dims symblock.Dims, electrons int, seed int64) *System {
	rng := rand.New(rand.NewSource(seed))
	s := symblock.NewMatrix("SO overlap", dims)
	h := symblock.NewMatrix("SO core Hamiltonian", dims)
	for irr, n := range dims {
		for i := 0; i < n; i++ {
			s.Set(irr, i, i, 1)
			h.Set(irr, i, i, -6+1.1*float64(i)+0.3*float64(irr)+0.05*rng.Float64())
			for j := 0; j < i; j++ {
				sv := 0.1 / float64(n) * (rng.Float64() - 0.5)
				hv := 0.2 * (rng.Float64() - 0.5)
				s.Set(irr, i, j, sv)
				s.Set(irr, j, i, sv)
				h.Set(irr, i, j, hv)
				h.Set(irr, j, i, hv)
			}
		}
	}
	return &System{
		Labels:           append([]string(nil), labels...),
		Dims:             append(symblock.Dims(nil), dims...),
		Electrons:        electrons,
		NuclearRepulsion: 1 + rng.Float64(),
		S:                s,
		H:                h,
	}
}

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
package integrals

import (
	"math"
	"math/rand"

	"github.com/MirzaevaIV/goHF/symblock"
)

// Allowed reports whether (ij|kl) can be non-zero in an abelian point group
// whose irreps are numbered in Cotton order, where the direct product of two
// irreps is the XOR of their indices.
func (m *SOMap) Allowed(i, j, k, l int) bool {
	return m.irrep[i]^m.irrep[j]^m.irrep[k]^m.irrep[l] == 0
}

// Synthetic generates one record per symmetry-allowed unique integral
// (i>=j, k>=l, ij>=kl). Coulomb-like integrals (ii|kk) decay with |i-k| and
// dominate; everything else is small noise. The set is meant for tests and
// smoke runs, not for physics.
func Synthetic(dims symblock.Dims, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	so := NewSOMap(dims)
	n := so.NSO()
	var res []Record
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			for k := 0; k <= i; k++ {
				lmax := k
				if k == i {
					lmax = j
				}
				for l := 0; l <= lmax; l++ {
					if !so.Allowed(i, j, k, l) {
						continue
					}
					var v float64
					switch {
					case i == j && k == l:
						v = 0.4 + 0.4*math.Exp(-math.Abs(float64(i-k))) + 0.02*rng.Float64()
					case (i == k && j == l) || (i == l && j == k):
						v = 0.05 + 0.02*rng.Float64()
					default:
						v = 0.02 * (rng.Float64() - 0.5)
					}
					res = append(res, Record{I: i, J: j, K: k, L: l, Value: v})
				}
			}
		}
	}
	return res
}

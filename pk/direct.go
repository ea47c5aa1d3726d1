// direct.go --  This file is part of goHF project.
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
package pk

import (
	"github.com/MirzaevaIV/goHF/integrals"
	"github.com/MirzaevaIV/goHF/symblock"
)

// Tensor is a dense four-index integral array over global SO indices.
type Tensor struct {
	n    int
	data []float64
}

// ExpandTensor places every record at all eight permutationally equivalent
// positions.
func ExpandTensor(records []integrals.Record, nso int) *Tensor {
	t := &Tensor{n: nso, data: make([]float64, nso*nso*nso*nso)}
	for _, r := range records {
		i, j, k, l := r.I, r.J, r.K, r.L
		for _, q := range [8][4]int{
			{i, j, k, l}, {j, i, k, l}, {i, j, l, k}, {j, i, l, k},
			{k, l, i, j}, {l, k, i, j}, {k, l, j, i}, {l, k, j, i},
		} {
			t.data[t.idx(q[0], q[1], q[2], q[3])] = r.Value
		}
	}
	return t
}

func (t *Tensor) idx(i, j, k, l int) int { return ((i*t.n+j)*t.n+k)*t.n + l }

// At returns (ij|kl).
func (t *Tensor) At(i, j, k, l int) float64 { return t.data[t.idx(i, j, k, l)] }

// DirectContract builds Gc and Go by explicit O(N⁴) summation,
//
//	Gc_pq = Σ_rs (Dc + Do/2)_rs [2(pq|rs) - (pr|qs)]
//	Go_pq = Σ_rs Dc_rs [(pq|rs) - (pr|qs)/2] + Σ_rs Do_rs [(pq|rs) - (pr|qs)]/2
//
// It serves as the reference the PK contraction is checked against.
func DirectContract(t *Tensor, so *integrals.SOMap, dc, do, gc, gOpen *symblock.Matrix) {
	dims := so.Dims()
	gc.Zero()
	gOpen.Zero()
	for h, n := range dims {
		for p := 0; p < n; p++ {
			for q := 0; q < n; q++ {
				gp, gq := so.Global(h, p), so.Global(h, q)
				var vc, vo float64
				for g, m := range dims {
					for r := 0; r < m; r++ {
						for s := 0; s < m; s++ {
							gr, gs := so.Global(g, r), so.Global(g, s)
							dcrs, dors := dc.At(g, r, s), do.At(g, r, s)
							j := t.At(gp, gq, gr, gs)
							k := t.At(gp, gr, gq, gs)
							vc += (dcrs + 0.5*dors) * (2*j - k)
							vo += dcrs*(j-0.5*k) + 0.5*dors*(j-k)
						}
					}
				}
				gc.Set(h, p, q, vc)
				gOpen.Set(h, p, q, vo)
			}
		}
	}
}

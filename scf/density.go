// density.go --  This file is part of goHF project.
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
package scf

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/MirzaevaIV/goHF/symblock"
)

// FormDensity overwrites the closed and open shell densities from the MO
// coefficients (columns are orbitals):
//
//	Dc = Σ_{m<docc} C_m C_mᵗ
//	Do = Σ_{docc<=m<docc+socc} C_m C_mᵗ
func FormDensity(c *symblock.Matrix, doccpi, soccpi []int, dc, do *symblock.Matrix) {
	dc.Zero()
	do.Zero()
	for h, n := range c.Dims() {
		if n == 0 {
			continue
		}
		cb := c.Block(h)
		nd, ns := doccpi[h], soccpi[h]
		if nd > 0 {
			occ := cb.Slice(0, n, 0, nd)
			dc.Block(h).Mul(occ, occ.T())
		}
		if ns > 0 {
			occ := cb.Slice(0, n, nd, nd+ns)
			do.Block(h).Mul(occ, occ.T())
		}
	}
}

// densityRMS is the RMS elementwise change of both densities.
func densityRMS(dc, dcOld, do, doOld *symblock.Matrix) float64 {
	var sq []float64
	for _, p := range [][2]*symblock.Matrix{{dc, dcOld}, {do, doOld}} {
		for h := 0; h < p[0].NIrrep(); h++ {
			a := p[0].Block(h)
			if a == nil {
				continue
			}
			var diff mat.Dense
			diff.Sub(a, p[1].Block(h))
			diff.MulElem(&diff, &diff)
			sq = append(sq, diff.RawMatrix().Data...)
		}
	}
	if len(sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(sq, nil))
}

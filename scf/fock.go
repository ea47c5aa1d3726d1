// fock.go --  This file is part of goHF project.
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
	"github.com/MirzaevaIV/goHF/symblock"
)

// FormFock builds the closed and open shell Fock matrices in the SO basis,
//
//	Fc = H + Gc
//	Fo = H/2 + Go
//
// and the effective Fock matrix in the MO basis of c.
func FormFock(h, gc, gOpen, c *symblock.Matrix, doccpi, soccpi []int, fc, fo, feff *symblock.Matrix) {
	fc.Copy(h)
	fc.Add(gc)
	fo.Copy(h)
	fo.Scale(0.5)
	fo.Add(gOpen)

	dims := h.Dims()
	fct := symblock.NewMatrix("Fock closed transformed", dims)
	fot := symblock.NewMatrix("Fock open transformed", dims)
	fct.TransformOf(fc, c)
	fot.TransformOf(fo, c)
	AssembleFeff(fct, fot, doccpi, soccpi, feff)
}

// AssembleFeff writes the effective Fock matrix from the MO basis closed and
// open Fock matrices. Per irrep, with rows and columns split into closed,
// open and virtual ranges:
//
//	closed    | open      | virtual
//	Fc          2(Fc-Fo)    Fc
//	2(Fc-Fo)    Fc          2Fo
//	Fc          2Fo         Fc
//
// With no open shells Feff equals Fc.
func AssembleFeff(fct, fot *symblock.Matrix, doccpi, soccpi []int, feff *symblock.Matrix) {
	feff.Copy(fct)
	for h, n := range fct.Dims() {
		nd, ns := doccpi[h], soccpi[h]
		for i := nd; i < nd+ns; i++ {
			for j := 0; j < nd; j++ {
				v := 2 * (fct.At(h, i, j) - fot.At(h, i, j))
				feff.Set(h, i, j, v)
				feff.Set(h, j, i, v)
			}
			for j := nd + ns; j < n; j++ {
				v := 2 * fot.At(h, i, j)
				feff.Set(h, i, j, v)
				feff.Set(h, j, i, v)
			}
		}
	}
}

// ComputeEnergy returns E = Enuc + Dc·(H+Fc) + Do·(H/2+Fo).
func ComputeEnergy(enuc float64, h, dc, do, fc, fo *symblock.Matrix) float64 {
	hfc := h.Clone("H+Fc")
	hfc.Add(fc)
	hfo := h.Clone("H/2+Fo")
	hfo.Scale(0.5)
	hfo.Add(fo)
	return enuc + dc.VectorDot(hfc) + do.VectorDot(hfo)
}

// OneElectronEnergy returns Enuc + Dc·H + Do·H/2, the energy of the starting
// densities before any two-electron term is known.
func OneElectronEnergy(enuc float64, h, dc, do *symblock.Matrix) float64 {
	return enuc + dc.VectorDot(h) + 0.5*do.VectorDot(h)
}

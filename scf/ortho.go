// ortho.go --  This file is part of goHF project.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MirzaevaIV/goHF/symblock"
)

// overlapTolerance is the smallest overlap eigenvalue accepted.
const overlapTolerance = 1e-10

// MatrixSqrtInverse returns S^{-1/2} and S^{1/2}, irrep by irrep, from the
// eigendecomposition S = V·diag(λ)·Vᵗ.
func MatrixSqrtInverse(s *symblock.Matrix) (sInvHalf, sHalf *symblock.Matrix, err error) {
	vecs, vals, err := s.Diagonalize()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: overlap: %w", ErrNumericalInstability, err)
	}
	dims := s.Dims()
	sInvHalf = symblock.NewMatrix("S^-1/2", dims)
	sHalf = symblock.NewMatrix("S^1/2", dims)
	for h, n := range dims {
		if n == 0 {
			continue
		}
		lambda := vals.Block(h)
		sqrtVec := make([]float64, n)
		invVec := make([]float64, n)
		for i, l := range lambda {
			if l < overlapTolerance {
				return nil, nil, fmt.Errorf("%w: overlap irrep %d has eigenvalue %.3e", ErrNumericalInstability, h, l)
			}
			sqrtVec[i] = math.Sqrt(l)
			invVec[i] = 1 / sqrtVec[i]
		}
		ev := vecs.Block(h)
		var tmp mat.Dense
		tmp.Mul(ev, mat.NewDiagDense(n, sqrtVec))
		sHalf.Block(h).Mul(&tmp, ev.T())
		tmp.Mul(ev, mat.NewDiagDense(n, invVec))
		sInvHalf.Block(h).Mul(&tmp, ev.T())
	}
	return sInvHalf, sHalf, nil
}

// CoreGuess diagonalizes the core Hamiltonian in the orthogonal basis and
// returns C = X·V with its orbital energies.
func CoreGuess(h, x *symblock.Matrix) (*symblock.Matrix, *symblock.Vector, error) {
	ht := symblock.NewMatrix("transformed core Hamiltonian", h.Dims())
	ht.TransformOf(h, x)
	vecs, eps, err := ht.Diagonalize()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: core guess: %w", ErrNumericalInstability, err)
	}
	c := symblock.NewMatrix("MO coefficients", h.Dims())
	c.Product(x, vecs)
	return c, eps, nil
}

// diis.go --  This file is part of goHF project.
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

// Package diis implements Pulay's direct inversion in the iterative subspace
// over symmetry-blocked Fock matrices.
package diis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/MirzaevaIV/goHF/symblock"
)

// Entry is one stored (error vector, Fock) pair.
type Entry struct {
	Error *symblock.Matrix
	Fock  *symblock.Matrix
}

// History is a bounded FIFO of DIIS entries. The oldest entry is dropped
// when a new one would exceed the capacity.
type History struct {
	max     int
	entries []Entry
}

// New returns an empty history holding at most max entries.
func New(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{max: max}
}

// Len returns the number of stored entries.
func (d *History) Len() int { return len(d.entries) }

// Max returns the capacity.
func (d *History) Max() int { return d.max }

// Entries returns the stored entries, oldest first.
func (d *History) Entries() []Entry { return d.entries }

// Reset drops every entry.
func (d *History) Reset() { d.entries = d.entries[:0] }

// Add stores copies of the error vector and Fock matrix.
func (d *History) Add(errVec, fock *symblock.Matrix) {
	if len(d.entries) == d.max {
		copy(d.entries, d.entries[1:])
		d.entries = d.entries[:len(d.entries)-1]
	}
	d.entries = append(d.entries, Entry{
		Error: errVec.Clone("DIIS error vector"),
		Fock:  fock.Clone("DIIS Fock"),
	})
}

// ErrorRMS returns the root mean square of the newest error vector.
func (d *History) ErrorRMS() float64 {
	if len(d.entries) == 0 {
		return 0
	}
	e := d.entries[len(d.entries)-1].Error
	var sq []float64
	for h := 0; h < e.NIrrep(); h++ {
		blk := e.Block(h)
		if blk == nil {
			continue
		}
		var tmp mat.Dense
		tmp.MulElem(blk, blk)
		sq = append(sq, tmp.RawMatrix().Data...)
	}
	if len(sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(sq, nil))
}

// bMatrix builds the bordered DIIS matrix
//
//	| <e_i,e_j>  -1 |
//	|    -1       0 |
func (d *History) bMatrix() *mat.Dense {
	n := len(d.entries)
	b := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		b.Set(i, n, -1)
		b.Set(n, i, -1)
		for j := 0; j <= i; j++ {
			v := d.entries[i].Error.VectorDot(d.entries[j].Error)
			b.Set(i, j, v)
			b.Set(j, i, v)
		}
	}
	return b
}

// Extrapolate writes Σ c_i F_i into dst, with Σ c_i = 1 and the c_i
// minimizing the norm of Σ c_i e_i. It returns false, leaving dst untouched,
// when the history is empty or the linear system is singular or
// ill-conditioned.
func (d *History) Extrapolate(dst *symblock.Matrix) ([]float64, bool) {
	n := len(d.entries)
	if n == 0 {
		return nil, false
	}
	b := d.bMatrix()
	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, -1)

	var lu mat.LU
	lu.Factorize(b)
	if lu.Det() == 0 {
		return nil, false
	}
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		return nil, false
	}
	res := make([]float64, n)
	for i := range res {
		res[i] = coefs.AtVec(i)
		if math.IsNaN(res[i]) || math.IsInf(res[i], 0) {
			return nil, false
		}
	}

	dst.Zero()
	for i, e := range d.entries {
		dst.AddScaled(res[i], e.Fock)
	}
	return res, true
}

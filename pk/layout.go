// layout.go --  This file is part of goHF project.
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

// Package pk builds the PK and K supermatrices from a stream of two-electron
// integrals and contracts them with closed- and open-shell densities.
//
// Only totally symmetric orbital pairs (both orbitals in the same irrep) are
// stored. Pairs are numbered irrep by irrep as offset[h] + p(p+1)/2 + q with
// p >= q, and the supermatrix is kept as the packed lower triangle over pairs.
package pk

import (
	"github.com/MirzaevaIV/goHF/symblock"
)

// Index2 is the packed lower-triangle index of (a,b), symmetric in a and b.
func Index2(a, b int) int {
	if a < b {
		a, b = b, a
	}
	return a*(a+1)/2 + b
}

// Layout describes pair numbering and supermatrix size for a dimension table.
type Layout struct {
	dims    symblock.Dims
	offsets []int
	pairs   int
}

// NewLayout computes per-irrep pair offsets.
func NewLayout(dims symblock.Dims) Layout {
	l := Layout{dims: append(symblock.Dims(nil), dims...), offsets: make([]int, len(dims))}
	for h, n := range dims {
		l.offsets[h] = l.pairs
		l.pairs += n * (n + 1) / 2
	}
	return l
}

// Dims returns the dimension table.
func (l Layout) Dims() symblock.Dims { return append(symblock.Dims(nil), l.dims...) }

// Pairs returns the number of totally symmetric pairs.
func (l Layout) Pairs() int { return l.pairs }

// Size returns the number of stored elements of one supermatrix.
func (l Layout) Size() int { return l.pairs * (l.pairs + 1) / 2 }

// Bytes returns the memory needed for PK and K together.
func (l Layout) Bytes() int64 { return 2 * 8 * int64(l.Size()) }

// Offset returns the first pair index of irrep h.
func (l Layout) Offset(h int) int { return l.offsets[h] }

// Pair returns the pair index of local orbitals p and q in irrep h.
func (l Layout) Pair(h, p, q int) int { return l.offsets[h] + Index2(p, q) }

// Index returns the storage position of the pair-of-pairs (pq,rs).
func (l Layout) Index(pq, rs int) int { return Index2(pq, rs) }

// Pack stores the lower triangle of every block of m into a pair vector,
// doubling off-diagonal elements.
func (l Layout) Pack(m *symblock.Matrix, dst []float64) {
	ij := 0
	for h, n := range l.dims {
		for p := 0; p < n; p++ {
			for q := 0; q <= p; q++ {
				if p != q {
					dst[ij] = 2.0 * m.At(h, p, q)
				} else {
					dst[ij] = m.At(h, p, q)
				}
				ij++
			}
		}
	}
}

// Unpack expands a pair vector into a symmetric blocked matrix, multiplying
// every element by scale.
func (l Layout) Unpack(src []float64, scale float64, m *symblock.Matrix) {
	ij := 0
	for h, n := range l.dims {
		for p := 0; p < n; p++ {
			for q := 0; q <= p; q++ {
				m.Set(h, p, q, scale*src[ij])
				m.Set(h, q, p, scale*src[ij])
				ij++
			}
		}
	}
}

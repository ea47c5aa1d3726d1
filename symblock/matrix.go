// matrix.go --  This file is part of goHF project.
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

// Package symblock implements block-diagonal matrices and vectors indexed by
// irreducible representation. Every block is a dense gonum matrix; blocks never
// interact, so all algebra is done irrep by irrep.
package symblock

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotSymmetric is returned by Diagonalize when a block is not symmetric
	// within tolerance. It always means the matrix was built wrong upstream.
	ErrNotSymmetric = errors.New("symblock: block is not symmetric")

	// ErrEigenFailed is returned when the symmetric eigensolver does not converge.
	ErrEigenFailed = errors.New("symblock: eigendecomposition failed")
)

// SymmetryTolerance is the largest |A_ij - A_ji| accepted by Diagonalize,
// relative to the largest element of the block (or absolute below 1).
const SymmetryTolerance = 1e-8

// Dims is the per-irrep dimension table of a calculation.
type Dims []int

// NIrrep returns the number of irreps.
func (d Dims) NIrrep() int { return len(d) }

// Total returns the summed dimension over all irreps.
func (d Dims) Total() int {
	n := 0
	for _, v := range d {
		n += v
	}
	return n
}

// Equal reports whether two tables describe the same blocking.
func (d Dims) Equal(o Dims) bool {
	if len(d) != len(o) {
		return false
	}
	for h := range d {
		if d[h] != o[h] {
			return false
		}
	}
	return true
}

// Offsets returns the global index of the first element of every irrep.
func (d Dims) Offsets() []int {
	res := make([]int, len(d))
	off := 0
	for h, n := range d {
		res[h] = off
		off += n
	}
	return res
}

// Matrix is a symmetry-blocked square matrix. Irreps of dimension zero have a
// nil block and are skipped by every operation.
type Matrix struct {
	Name   string
	dims   Dims
	blocks []*mat.Dense
}

// NewMatrix allocates a zero matrix with the given blocking.
func NewMatrix(name string, dims Dims) *Matrix {
	m := &Matrix{
		Name:   name,
		dims:   append(Dims(nil), dims...),
		blocks: make([]*mat.Dense, len(dims)),
	}
	for h, n := range dims {
		if n < 0 {
			panic(fmt.Sprintf("symblock: negative dimension %d for irrep %d", n, h))
		}
		if n > 0 {
			m.blocks[h] = mat.NewDense(n, n, nil)
		}
	}
	return m
}

// NewMatrixFromBlocks builds a matrix from row-major per-irrep data.
func NewMatrixFromBlocks(name string, data [][][]float64) *Matrix {
	dims := make(Dims, len(data))
	for h := range data {
		dims[h] = len(data[h])
	}
	m := NewMatrix(name, dims)
	for h := range data {
		for i := range data[h] {
			if len(data[h][i]) != dims[h] {
				panic(fmt.Sprintf("symblock: irrep %d row %d has %d columns, want %d", h, i, len(data[h][i]), dims[h]))
			}
			for j, v := range data[h][i] {
				m.blocks[h].Set(i, j, v)
			}
		}
	}
	return m
}

// Dims returns a copy of the dimension table.
func (m *Matrix) Dims() Dims { return append(Dims(nil), m.dims...) }

// NIrrep returns the number of blocks.
func (m *Matrix) NIrrep() int { return len(m.dims) }

// Block returns the dense block of irrep h, nil when the irrep is empty.
func (m *Matrix) Block(h int) *mat.Dense { return m.blocks[h] }

// At returns element (i,j) of block h.
func (m *Matrix) At(h, i, j int) float64 { return m.blocks[h].At(i, j) }

// Set sets element (i,j) of block h.
func (m *Matrix) Set(h, i, j int, v float64) { m.blocks[h].Set(i, j, v) }

func (m *Matrix) mustMatch(b *Matrix) {
	if !m.dims.Equal(b.dims) {
		panic(fmt.Sprintf("symblock: dimension mismatch %v vs %v (%s, %s)", m.dims, b.dims, m.Name, b.Name))
	}
}

// Zero clears every block.
func (m *Matrix) Zero() {
	for _, b := range m.blocks {
		if b != nil {
			b.Zero()
		}
	}
}

// Copy overwrites m with src.
func (m *Matrix) Copy(src *Matrix) {
	m.mustMatch(src)
	for h, b := range m.blocks {
		if b != nil {
			b.Copy(src.blocks[h])
		}
	}
}

// Clone returns a deep copy under a new name.
func (m *Matrix) Clone(name string) *Matrix {
	res := NewMatrix(name, m.dims)
	res.Copy(m)
	return res
}

// Add adds b to m in place.
func (m *Matrix) Add(b *Matrix) {
	m.mustMatch(b)
	for h, blk := range m.blocks {
		if blk != nil {
			blk.Add(blk, b.blocks[h])
		}
	}
}

// Sub subtracts b from m in place.
func (m *Matrix) Sub(b *Matrix) {
	m.mustMatch(b)
	for h, blk := range m.blocks {
		if blk != nil {
			blk.Sub(blk, b.blocks[h])
		}
	}
}

// AddScaled performs m += f*b.
func (m *Matrix) AddScaled(f float64, b *Matrix) {
	m.mustMatch(b)
	for h, blk := range m.blocks {
		if blk != nil {
			var tmp mat.Dense
			tmp.Scale(f, b.blocks[h])
			blk.Add(blk, &tmp)
		}
	}
}

// Scale multiplies every element by f.
func (m *Matrix) Scale(f float64) {
	for _, blk := range m.blocks {
		if blk != nil {
			blk.Scale(f, blk)
		}
	}
}

// Product sets m = a·b blockwise.
func (m *Matrix) Product(a, b *Matrix) {
	m.mustMatch(a)
	m.mustMatch(b)
	for h, blk := range m.blocks {
		if blk == nil {
			continue
		}
		var tmp mat.Dense
		tmp.Mul(a.blocks[h], b.blocks[h])
		blk.Copy(&tmp)
	}
}

// TransformOf sets m = Xᵗ·a·X blockwise.
func (m *Matrix) TransformOf(a, x *Matrix) {
	m.mustMatch(a)
	m.mustMatch(x)
	for h, blk := range m.blocks {
		if blk == nil {
			continue
		}
		var ax, res mat.Dense
		ax.Mul(a.blocks[h], x.blocks[h])
		res.Mul(x.blocks[h].T(), &ax)
		blk.Copy(&res)
	}
}

// Transform replaces m with Xᵗ·m·X.
func (m *Matrix) Transform(x *Matrix) { m.TransformOf(m, x) }

// BackTransform replaces m with X·m·Xᵗ.
func (m *Matrix) BackTransform(x *Matrix) {
	m.mustMatch(x)
	for h, blk := range m.blocks {
		if blk == nil {
			continue
		}
		var mx, res mat.Dense
		mx.Mul(blk, x.blocks[h].T())
		res.Mul(x.blocks[h], &mx)
		blk.Copy(&res)
	}
}

// VectorDot returns Σ_h Σ_ij m[h][i][j]·b[h][i][j].
func (m *Matrix) VectorDot(b *Matrix) float64 {
	m.mustMatch(b)
	res := 0.0
	for h, blk := range m.blocks {
		if blk == nil {
			continue
		}
		var prod mat.Dense
		prod.MulElem(blk, b.blocks[h])
		res += mat.Sum(&prod)
	}
	return res
}

// ZeroDiagonal clears the diagonal of every block.
func (m *Matrix) ZeroDiagonal() {
	for h, n := range m.dims {
		for i := 0; i < n; i++ {
			m.blocks[h].Set(i, i, 0)
		}
	}
}

// Asymmetry returns the irrep with the largest |A_ij - A_ji| relative to the
// block scale, and that value.
func (m *Matrix) Asymmetry() (int, float64) {
	worst, where := 0.0, -1
	for h, n := range m.dims {
		if n == 0 {
			continue
		}
		blk := m.blocks[h]
		scale := math.Max(1, mat.Norm(blk, math.Inf(1)))
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				d := math.Abs(blk.At(i, j)-blk.At(j, i)) / scale
				if d > worst {
					worst, where = d, h
				}
			}
		}
	}
	return where, worst
}

// Diagonalize returns the eigenvectors (as columns of each block) and the
// eigenvalues of a symmetric matrix. Eigenvalues ascend within every irrep;
// nothing orders them across irreps.
func (m *Matrix) Diagonalize() (*Matrix, *Vector, error) {
	if h, d := m.Asymmetry(); d > SymmetryTolerance {
		return nil, nil, fmt.Errorf("%w: %s irrep %d deviates by %.3e", ErrNotSymmetric, m.Name, h, d)
	}
	vecs := NewMatrix(m.Name+" eigenvectors", m.dims)
	vals := NewVector(m.Name+" eigenvalues", m.dims)
	for h, n := range m.dims {
		if n == 0 {
			continue
		}
		sym := mat.NewSymDense(n, nil)
		blk := m.blocks[h]
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				sym.SetSym(i, j, 0.5*(blk.At(i, j)+blk.At(j, i)))
			}
		}
		var eigsym mat.EigenSym
		if ok := eigsym.Factorize(sym, true); !ok {
			return nil, nil, fmt.Errorf("%w: %s irrep %d", ErrEigenFailed, m.Name, h)
		}
		eigsym.Values(vals.blocks[h])
		eigsym.VectorsTo(vecs.blocks[h])
	}
	return vecs, vals, nil
}

// String formats every block the way PrintDense does.
func (m *Matrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  ## %s ##\n", m.Name)
	for h, blk := range m.blocks {
		fmt.Fprintf(&sb, "  Irrep: %d\n", h+1)
		if blk == nil {
			sb.WriteString("    (empty)\n")
			continue
		}
		fa := mat.Formatted(blk, mat.Prefix("    "), mat.Squeeze())
		fmt.Fprintf(&sb, "    %.10f\n", fa)
	}
	return sb.String()
}

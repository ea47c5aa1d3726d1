package symblock

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatrix() *Matrix {
	return NewMatrixFromBlocks("A", [][][]float64{
		{{2, 1}, {1, 3}},
		{},
		{{-1}},
	})
}

func TestNewMatrixSkipsEmptyIrreps(t *testing.T) {
	m := NewMatrix("m", Dims{2, 0, 1})
	assert.Nil(t, m.Block(1))
	assert.NotNil(t, m.Block(0))
	assert.Equal(t, Dims{2, 0, 1}, m.Dims())
	assert.Equal(t, 3, m.Dims().Total())
	assert.Equal(t, []int{0, 2, 2}, m.Dims().Offsets())
}

func TestCrossBlockIndexPanics(t *testing.T) {
	m := testMatrix()
	assert.Panics(t, func() { m.At(2, 0, 1) })
	assert.Panics(t, func() { m.Add(NewMatrix("b", Dims{1, 1, 1})) })
}

func TestArithmetic(t *testing.T) {
	a := testMatrix()
	b := a.Clone("B")
	b.Scale(2)
	a.Add(b)
	assert.Equal(t, 6.0, a.At(0, 0, 0))
	assert.Equal(t, 3.0, a.At(0, 1, 0))
	assert.Equal(t, -3.0, a.At(2, 0, 0))

	a.Sub(b)
	assert.Equal(t, 2.0, a.At(0, 0, 0))

	a.AddScaled(0.5, b)
	assert.Equal(t, 4.0, a.At(0, 0, 0))

	a.Zero()
	assert.Equal(t, 0.0, a.VectorDot(b))
}

func TestVectorDot(t *testing.T) {
	a := testMatrix()
	// 4 + 1 + 1 + 9 + 1
	assert.InDelta(t, 16.0, a.VectorDot(a), 1e-14)
}

func TestTransformAndBack(t *testing.T) {
	a := testMatrix()
	c, s := math.Cos(0.3), math.Sin(0.3)
	x := NewMatrixFromBlocks("X", [][][]float64{
		{{c, -s}, {s, c}},
		{},
		{{1}},
	})
	t1 := NewMatrix("t", a.Dims())
	t1.TransformOf(a, x)
	// similarity transform with an orthogonal X keeps the trace
	assert.InDelta(t, 5.0, t1.At(0, 0, 0)+t1.At(0, 1, 1), 1e-12)

	t1.BackTransform(x)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, a.At(0, i, j), t1.At(0, i, j), 1e-12)
		}
	}

	p := NewMatrix("p", a.Dims())
	p.Product(a, x)
	assert.InDelta(t, 2*c+s, p.At(0, 0, 0), 1e-12)
}

func TestDiagonalize(t *testing.T) {
	a := NewMatrixFromBlocks("A", [][][]float64{
		{{2, 1}, {1, 2}},
		{{-5}},
	})
	vecs, vals, err := a.Diagonalize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vals.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, vals.At(0, 1), 1e-12)
	assert.InDelta(t, -5.0, vals.At(1, 0), 1e-12)

	// A·v = λ·v for each column
	for k := 0; k < 2; k++ {
		for i := 0; i < 2; i++ {
			av := a.At(0, i, 0)*vecs.At(0, 0, k) + a.At(0, i, 1)*vecs.At(0, 1, k)
			assert.InDelta(t, vals.At(0, k)*vecs.At(0, i, k), av, 1e-12)
		}
	}
	assert.Equal(t, []float64{1, 3, -5}, roundAll(vals.Flatten()))
}

func TestDiagonalizeRejectsAsymmetric(t *testing.T) {
	a := NewMatrixFromBlocks("bad", [][][]float64{
		{{1}},
		{{1, 2}, {0, 1}},
	})
	_, _, err := a.Diagonalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSymmetric))
	h, _ := a.Asymmetry()
	assert.Equal(t, 1, h)
}

func TestZeroDiagonal(t *testing.T) {
	a := testMatrix()
	a.ZeroDiagonal()
	assert.Equal(t, 0.0, a.At(0, 0, 0))
	assert.Equal(t, 1.0, a.At(0, 0, 1))
	assert.Equal(t, 0.0, a.At(2, 0, 0))
}

func TestVectorCopyAndFlatten(t *testing.T) {
	v := NewVector("eps", Dims{2, 1})
	v.Set(0, 1, 4)
	v.Set(1, 0, -1)
	w := NewVector("copy", v.Dims())
	w.Copy(v)
	assert.Equal(t, []float64{0, 4, -1}, w.Flatten())
	assert.Contains(t, w.String(), "copy")
	assert.Panics(t, func() { w.Copy(NewVector("x", Dims{3})) })
}

func roundAll(v []float64) []float64 {
	res := make([]float64, len(v))
	for i, x := range v {
		res[i] = math.Round(x*1e10) / 1e10
	}
	return res
}

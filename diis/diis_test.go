package diis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MirzaevaIV/goHF/symblock"
)

func scalar(v float64) *symblock.Matrix {
	return symblock.NewMatrixFromBlocks("x", [][][]float64{{{v}}})
}

func TestHistoryFIFO(t *testing.T) {
	d := New(3)
	for k := 0; k < 5; k++ {
		d.Add(scalar(float64(k)), scalar(10*float64(k)))
		assert.LessOrEqual(t, d.Len(), d.Max())
	}
	require.Equal(t, 3, d.Len())
	// entries 0 and 1 were evicted, oldest first
	assert.Equal(t, 20.0, d.Entries()[0].Fock.At(0, 0, 0))
	assert.Equal(t, 40.0, d.Entries()[2].Fock.At(0, 0, 0))

	d.Reset()
	assert.Equal(t, 0, d.Len())
}

func TestAddCopies(t *testing.T) {
	d := New(2)
	e, f := scalar(1), scalar(2)
	d.Add(e, f)
	f.Set(0, 0, 0, 99)
	assert.Equal(t, 2.0, d.Entries()[0].Fock.At(0, 0, 0))
}

func TestNewClampsCapacity(t *testing.T) {
	assert.Equal(t, 1, New(0).Max())
}

func TestExtrapolate(t *testing.T) {
	d := New(4)
	d.Add(scalar(1), scalar(2))
	d.Add(scalar(-1), scalar(4))

	dst := scalar(0)
	coefs, ok := d.Extrapolate(dst)
	require.True(t, ok)
	assert.InDelta(t, 0.5, coefs[0], 1e-12)
	assert.InDelta(t, 0.5, coefs[1], 1e-12)
	assert.InDelta(t, 3.0, dst.At(0, 0, 0), 1e-12)
}

func TestExtrapolateSingleVector(t *testing.T) {
	d := New(4)
	d.Add(scalar(0.1), scalar(-7))
	dst := scalar(0)
	coefs, ok := d.Extrapolate(dst)
	require.True(t, ok)
	assert.InDelta(t, 1.0, coefs[0], 1e-12)
	assert.InDelta(t, -7.0, dst.At(0, 0, 0), 1e-12)
}

func TestExtrapolateSingularSkips(t *testing.T) {
	d := New(4)
	d.Add(scalar(0), scalar(1))
	d.Add(scalar(0), scalar(5))

	dst := scalar(42)
	_, ok := d.Extrapolate(dst)
	assert.False(t, ok)
	assert.Equal(t, 42.0, dst.At(0, 0, 0))

	_, ok = New(2).Extrapolate(dst)
	assert.False(t, ok)
}

func TestErrorRMS(t *testing.T) {
	d := New(2)
	assert.Equal(t, 0.0, d.ErrorRMS())

	e := symblock.NewMatrixFromBlocks("e", [][][]float64{{{0, 1}, {1, 0}}, {}})
	d.Add(e, e)
	assert.InDelta(t, math.Sqrt(0.5), d.ErrorRMS(), 1e-15)
}

package pk

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MirzaevaIV/goHF/integrals"
	"github.com/MirzaevaIV/goHF/symblock"
)

const unlimited = int64(1) << 40

// c2v-like blocking: A1, A2, B1, B2
var testDims = symblock.Dims{3, 1, 2, 2}

// scramble returns every record under a random one of its eight labelings.
func scramble(records []integrals.Record, rng *rand.Rand) []integrals.Record {
	res := make([]integrals.Record, len(records))
	for n, r := range records {
		i, j, k, l := r.I, r.J, r.K, r.L
		if rng.Intn(2) == 1 {
			i, j = j, i
		}
		if rng.Intn(2) == 1 {
			k, l = l, k
		}
		if rng.Intn(2) == 1 {
			i, j, k, l = k, l, i, j
		}
		res[n] = integrals.Record{I: i, J: j, K: k, L: l, Value: r.Value}
	}
	return res
}

func randomDensity(name string, dims symblock.Dims, rng *rand.Rand) *symblock.Matrix {
	m := symblock.NewMatrix(name, dims)
	for h, n := range dims {
		for p := 0; p < n; p++ {
			for q := 0; q <= p; q++ {
				v := rng.Float64() - 0.5
				m.Set(h, p, q, v)
				m.Set(h, q, p, v)
			}
		}
	}
	return m
}

func buildTest(t *testing.T, records []integrals.Record, chunk int) (*Supermatrix, *integrals.SOMap) {
	t.Helper()
	so := integrals.NewSOMap(testDims)
	s, err := Build(integrals.NewSliceStream(records, chunk), so, unlimited, nil)
	require.NoError(t, err)
	return s, so
}

func TestLayout(t *testing.T) {
	l := NewLayout(testDims)
	assert.Equal(t, 6+1+3+3, l.Pairs())
	assert.Equal(t, 13*14/2, l.Size())
	assert.Equal(t, int64(2*8*91), l.Bytes())
	assert.Equal(t, 0, l.Offset(0))
	assert.Equal(t, 6, l.Offset(1))
	assert.Equal(t, 7, l.Offset(2))
	assert.Equal(t, 10, l.Offset(3))
	assert.Equal(t, l.Pair(0, 2, 1), l.Pair(0, 1, 2))
	assert.Equal(t, 11, l.Pair(3, 1, 0))
	assert.Equal(t, l.Index(3, 5), l.Index(5, 3))
}

func TestPackUnpack(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := NewLayout(testDims)
	d := randomDensity("D", testDims, rng)
	v := make([]float64, l.Pairs())
	l.Pack(d, v)
	assert.Equal(t, 2*d.At(0, 2, 1), v[l.Pair(0, 2, 1)])
	assert.Equal(t, d.At(2, 1, 1), v[l.Pair(2, 1, 1)])

	back := symblock.NewMatrix("back", testDims)
	l.Unpack(v, 1, back)
	assert.Equal(t, d.At(3, 1, 1), back.At(3, 1, 1))
	assert.Equal(t, 2*d.At(3, 1, 0), back.At(3, 0, 1))
}

// Every stored element must equal (pq|rs) - [(pr|qs)+(ps|qr)]/4 for PK and
// the exchange part alone for K, whichever labeling the stream used.
func TestSupermatrixElements(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	records := integrals.Synthetic(testDims, 3)
	s, so := buildTest(t, scramble(records, rng), 17)
	assert.Equal(t, len(records), s.Integrals)
	tensor := ExpandTensor(records, so.NSO())

	type pair struct{ h, p, q int }
	var pairs []pair
	for h, n := range testDims {
		for p := 0; p < n; p++ {
			for q := 0; q <= p; q++ {
				pairs = append(pairs, pair{h, p, q})
			}
		}
	}
	for _, a := range pairs {
		for _, b := range pairs {
			pq := s.Pair(a.h, a.p, a.q)
			rs := s.Pair(b.h, b.p, b.q)
			p, q := so.Global(a.h, a.p), so.Global(a.h, a.q)
			r, ss := so.Global(b.h, b.p), so.Global(b.h, b.q)
			exch := -0.25 * (tensor.At(p, r, q, ss) + tensor.At(p, ss, q, r))
			wantPK := tensor.At(p, q, r, ss) + exch

			gotPK, gotK := s.Effective(pq, rs)
			assert.InDelta(t, wantPK, gotPK, 1e-12, "PK(%d,%d)", pq, rs)
			assert.InDelta(t, exch, gotK, 1e-12, "K(%d,%d)", pq, rs)

			symPK, symK := s.Effective(rs, pq)
			assert.Equal(t, gotPK, symPK)
			assert.Equal(t, gotK, symK)
		}
	}
}

func TestDiagonalHalving(t *testing.T) {
	// (pp|pp) only: PK_pp,pp = (pp|pp) - (pp|pp)/2, stored at half that.
	records := []integrals.Record{{I: 0, J: 0, K: 0, L: 0, Value: 0.8}, {I: 4, J: 4, K: 4, L: 4, Value: 0.6}}
	s, so := buildTest(t, records, 0)
	pp := s.Pair(so.Irrep(0), so.Local(0), so.Local(0))
	assert.InDelta(t, 0.2, s.PK[Index2(pp, pp)], 1e-15)
	assert.InDelta(t, -0.2, s.K[Index2(pp, pp)], 1e-15)
	pk, k := s.Effective(pp, pp)
	assert.InDelta(t, 0.4, pk, 1e-15)
	assert.InDelta(t, -0.4, k, 1e-15)

	rr := s.Pair(so.Irrep(4), so.Local(4), so.Local(4))
	pk, _ = s.Effective(rr, rr)
	assert.InDelta(t, 0.3, pk, 1e-15)

	dc := symblock.NewMatrix("Dc", testDims)
	dc.Set(0, 0, 0, 1)
	do := symblock.NewMatrix("Do", testDims)
	gc := symblock.NewMatrix("Gc", testDims)
	gOpen := symblock.NewMatrix("Go", testDims)
	require.NoError(t, s.Contract(dc, do, gc, gOpen, 1))
	// one doubly occupied orbital: J - K/2 per electron pair = (2 - 1)(00|00)
	assert.InDelta(t, 0.8, gc.At(0, 0, 0), 1e-14)
}

func TestContractMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	records := integrals.Synthetic(testDims, 9)
	s, so := buildTest(t, scramble(records, rng), 0)
	tensor := ExpandTensor(records, so.NSO())

	for trial := 0; trial < 3; trial++ {
		dc := randomDensity("Dc", testDims, rng)
		do := randomDensity("Do", testDims, rng)

		wantC := symblock.NewMatrix("Gc direct", testDims)
		wantO := symblock.NewMatrix("Go direct", testDims)
		DirectContract(tensor, so, dc, do, wantC, wantO)

		for _, workers := range []int{1, 3, 0} {
			gc := symblock.NewMatrix("Gc", testDims)
			gOpen := symblock.NewMatrix("Go", testDims)
			require.NoError(t, s.Contract(dc, do, gc, gOpen, workers))
			for h, n := range testDims {
				for p := 0; p < n; p++ {
					for q := 0; q < n; q++ {
						assertRel(t, wantC.At(h, p, q), gc.At(h, p, q), "Gc[%d][%d][%d] workers=%d", h, p, q, workers)
						assertRel(t, wantO.At(h, p, q), gOpen.At(h, p, q), "Go[%d][%d][%d] workers=%d", h, p, q, workers)
					}
				}
			}
		}
	}
}

func TestBuildResourceExhausted(t *testing.T) {
	so := integrals.NewSOMap(testDims)
	_, err := Build(integrals.NewSliceStream(nil, 0), so, 100, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResourceExhausted))
}

func TestBuildRejectsBadLabels(t *testing.T) {
	so := integrals.NewSOMap(testDims)
	bad := []integrals.Record{{I: 99, J: 0, K: 0, L: 0, Value: 1}}
	_, err := Build(integrals.NewSliceStream(bad, 0), so, unlimited, nil)
	assert.Error(t, err)
}

func TestRowBounds(t *testing.T) {
	for _, tc := range []struct{ n, parts int }{{13, 1}, {13, 4}, {3, 3}, {100, 7}} {
		b := rowBounds(tc.n, tc.parts)
		require.Len(t, b, tc.parts+1)
		assert.Equal(t, 0, b[0])
		assert.Equal(t, tc.n, b[tc.parts])
		for i := 1; i < len(b); i++ {
			assert.LessOrEqual(t, b[i-1], b[i])
		}
	}
}

func assertRel(t *testing.T, want, got float64, msg string, args ...interface{}) {
	t.Helper()
	tol := 1e-10 * math.Max(1, math.Abs(want))
	assert.InDeltaf(t, want, got, tol, msg, args...)
}

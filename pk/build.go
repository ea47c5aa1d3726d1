// build.go --  This file is part of goHF project.
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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MirzaevaIV/goHF/integrals"
)

// ErrResourceExhausted is returned when PK and K do not fit the memory budget.
var ErrResourceExhausted = errors.New("pk: insufficient memory for in-core PK")

const mib = 1048576.0

// Supermatrix holds the packed PK and K arrays. It is read-only once Build
// returns and may be shared between goroutines.
type Supermatrix struct {
	Layout
	PK []float64
	K  []float64
	// Integrals is the number of records consumed while building.
	Integrals int
}

// Effective returns the PK and K elements as seen by the contraction, that is
// with the diagonal halving undone.
func (s *Supermatrix) Effective(pq, rs int) (float64, float64) {
	idx := Index2(pq, rs)
	if pq == rs {
		return 2 * s.PK[idx], 2 * s.K[idx]
	}
	return s.PK[idx], s.K[idx]
}

// Build consumes the integral stream once and forms PK and K.
//
// Every record is first brought to canonical order i>=j, k>=l, ij>=kl. The
// Coulomb integral goes to PK at full weight. The two exchange pairings
// (ik|jl) and (il|jk) go to both PK and K with weight -1/4, or -1/2 when the
// integral appears twice in the same exchange element (i==k or j==l for the
// first, i==l or j==k for the second). The second pairing coincides with the
// first when i==j or k==l and is then skipped. Finally all diagonal
// pair-of-pairs elements are halved because the contraction visits them twice.
func Build(stream integrals.Stream, so *integrals.SOMap, budget int64, logger *slog.Logger) (*Supermatrix, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	layout := NewLayout(so.Dims())
	if need := layout.Bytes(); need > budget {
		logger.Warn("Insufficient memory for in-core PK implementation.",
			"need_mib", float64(need)/mib, "budget_mib", float64(budget)/mib)
		return nil, fmt.Errorf("%w: need %d bytes, budget %d", ErrResourceExhausted, need, budget)
	}

	tstart := time.Now()
	s := &Supermatrix{
		Layout: layout,
		PK:     make([]float64, layout.Size()),
		K:      make([]float64, layout.Size()),
	}
	logger.Info("Allocated PK and K.",
		"elements", layout.Size(), "pairs", layout.Pairs(),
		"mib", float64(layout.Size())*8/mib)

	for {
		buf, last, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("pk: reading integrals: %w", err)
		}
		for _, r := range buf {
			if err := so.Check(r); err != nil {
				return nil, err
			}
			s.deposit(so, r)
			s.Integrals++
		}
		if last {
			break
		}
	}

	for ij := 0; ij < layout.Pairs(); ij++ {
		s.PK[Index2(ij, ij)] *= 0.5
		s.K[Index2(ij, ij)] *= 0.5
	}

	logger.Info("Formed PK and K matrices.", "integrals", s.Integrals, "time", time.Since(tstart))
	return s, nil
}

func canonical(r integrals.Record) (i, j, k, l int) {
	i, j, k, l = r.I, r.J, r.K, r.L
	if i < j {
		i, j = j, i
	}
	if k < l {
		k, l = l, k
	}
	if Index2(i, j) < Index2(k, l) {
		i, j, k, l = k, l, i, j
	}
	return
}

func (s *Supermatrix) deposit(so *integrals.SOMap, r integrals.Record) {
	i, j, k, l := canonical(r)
	value := r.Value

	is, js, ks, ls := so.Irrep(i), so.Irrep(j), so.Irrep(k), so.Irrep(l)
	ii, jj, kk, ll := so.Local(i), so.Local(j), so.Local(k), so.Local(l)

	// J
	if is == js && ks == ls {
		bra := s.Pair(is, ii, jj)
		ket := s.Pair(ks, kk, ll)
		s.PK[Index2(bra, ket)] += value
	}

	// K/2, (ik|jl) pairing
	if is == ks && js == ls {
		bra := s.Pair(is, ii, kk)
		ket := s.Pair(js, jj, ll)
		w := 0.25
		if i == k || j == l {
			w = 0.5
		}
		s.PK[Index2(bra, ket)] -= w * value
		s.K[Index2(bra, ket)] -= w * value
	}

	// K/2, (il|jk) pairing
	if i != j && k != l && is == ls && js == ks {
		bra := s.Pair(is, ii, ll)
		ket := s.Pair(js, jj, kk)
		w := 0.25
		if i == l || j == k {
			w = 0.5
		}
		s.PK[Index2(bra, ket)] -= w * value
		s.K[Index2(bra, ket)] -= w * value
	}
}

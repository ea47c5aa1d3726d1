// contract.go --  This file is part of goHF project.
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
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/MirzaevaIV/goHF/symblock"
)

// Contract forms the closed and open G matrices from the closed and open
// densities:
//
//	Gc = 2 [ PK·Dc + PK·Do/2 ]
//	Go = 2 [ PK·Dc/2 + (PK+K)·Do/4 ]
//
// with packed densities (off-diagonal elements doubled). The triangular sweep
// over pair rows is split between workers; each worker owns private
// accumulators which are summed at the end, so no accumulator is touched by
// two goroutines. workers <= 0 means GOMAXPROCS.
func (s *Supermatrix) Contract(dc, do, gc, gOpen *symblock.Matrix, workers int) error {
	npairs := s.Pairs()
	dcv := make([]float64, npairs)
	dov := make([]float64, npairs)
	s.Pack(dc, dcv)
	s.Pack(do, dov)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > npairs {
		workers = npairs
	}
	if workers < 1 {
		workers = 1
	}

	bounds := rowBounds(npairs, workers)
	gcParts := make([][]float64, workers)
	goParts := make([][]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		gcParts[w] = make([]float64, npairs)
		goParts[w] = make([]float64, npairs)
		w := w
		g.Go(func() error {
			s.sweep(bounds[w], bounds[w+1], dcv, dov, gcParts[w], goParts[w])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	gcv, gov := gcParts[0], goParts[0]
	for w := 1; w < workers; w++ {
		floats.Add(gcv, gcParts[w])
		floats.Add(gov, goParts[w])
	}

	s.Unpack(gcv, 2.0, gc)
	s.Unpack(gov, 2.0, gOpen)
	return nil
}

// sweep processes pair rows [from, to) of the packed lower triangle.
func (s *Supermatrix) sweep(from, to int, dcv, dov, gcv, gov []float64) {
	for pq := from; pq < to; pq++ {
		var gcPQ, goPQ float64
		dcPQ := dcv[pq]
		doPQ := dov[pq]
		row := pq * (pq + 1) / 2
		pkRow := s.PK[row : row+pq+1]
		kRow := s.K[row : row+pq+1]
		for rs := 0; rs <= pq; rs++ {
			pkv := pkRow[rs]
			pkk := pkv + kRow[rs]
			// closed density into closed G
			gcPQ += pkv * dcv[rs]
			gcv[rs] += pkv * dcPQ
			// open density into closed G
			gcPQ += pkv * dov[rs] * 0.5
			gcv[rs] += pkv * doPQ * 0.5
			// closed density into open G
			goPQ += pkv * dcv[rs] * 0.5
			gov[rs] += pkv * dcPQ * 0.5
			// open density into open G
			goPQ += pkk * dov[rs] * 0.25
			gov[rs] += pkk * doPQ * 0.25
		}
		gcv[pq] += gcPQ
		gov[pq] += goPQ
	}
}

// rowBounds splits n triangular rows into parts of roughly equal work.
func rowBounds(n, parts int) []int {
	bounds := make([]int, parts+1)
	total := float64(n) * float64(n+1) / 2
	row, done := 0, 0.0
	for p := 1; p < parts; p++ {
		target := total * float64(p) / float64(parts)
		for row < n && done+float64(row+1) <= target {
			done += float64(row + 1)
			row++
		}
		bounds[p] = row
	}
	bounds[parts] = n
	return bounds
}

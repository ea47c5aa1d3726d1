// diagnostics.go --  This file is part of goHF project.
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

// Package diagnostics receives the per-iteration progress of an SCF run.
package diagnostics

import (
	"fmt"
	"log/slog"
)

// Iteration is the progress record emitted after every SCF iteration.
type Iteration struct {
	N      int
	Energy float64
	Delta  float64
	DIIS   bool
	// DensityRMS is the RMS change of the closed and open densities.
	DensityRMS float64
	// DIISError is the RMS of the newest DIIS error vector, 0 when DIIS is off.
	DIISError float64
	// Doccpi and Soccpi are the occupations selected in this iteration.
	Doccpi, Soccpi []int
}

// Summary closes a run.
type Summary struct {
	Reference  string
	Converged  bool
	Energy     float64
	Iterations int
}

// Sink consumes diagnostics. Calls come from the single driver goroutine.
type Sink interface {
	Iteration(it Iteration)
	Finish(s Summary)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Iteration(Iteration) {}
func (Discard) Finish(Summary)      {}

type multi []Sink

// Multi fans diagnostics out to every sink in order.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Iteration(it Iteration) {
	for _, s := range m {
		s.Iteration(it)
	}
}

func (m multi) Finish(sum Summary) {
	for _, s := range m {
		s.Finish(sum)
	}
}

// LogSink writes one line per iteration in the classic SCF table layout.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (l *LogSink) Iteration(it Iteration) {
	diis := ""
	if it.DIIS {
		diis = "DIIS"
	}
	l.logger.Info(fmt.Sprintf("iteration %3d energy: %20.14f %20.14f %20.14f %s", it.N, it.Energy, it.Delta, it.DensityRMS, diis),
		"iter", it.N,
		"energy", it.Energy,
		"delta", it.Delta,
		"diis", it.DIIS,
		"density_rms", it.DensityRMS,
		"diis_error", it.DIISError,
	)
}

func (l *LogSink) Finish(s Summary) {
	if s.Converged {
		l.logger.Info("energy converged", "reference", s.Reference, "energy", s.Energy, "iterations", s.Iterations)
		return
	}
	l.logger.Warn("failed to converge", "reference", s.Reference, "iterations", s.Iterations)
}

// Recorder keeps everything it receives, for tests and post-run analysis.
type Recorder struct {
	Iterations []Iteration
	Summary    *Summary
}

func (r *Recorder) Iteration(it Iteration) { r.Iterations = append(r.Iterations, it) }

func (r *Recorder) Finish(s Summary) { r.Summary = &s }

// DIISCount returns the number of iterations that used an extrapolated Fock.
func (r *Recorder) DIISCount() int {
	n := 0
	for _, it := range r.Iterations {
		if it.DIIS {
			n++
		}
	}
	return n
}

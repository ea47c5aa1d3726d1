// driver.go --  This file is part of goHF project.
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

// Package scf drives restricted Hartree-Fock iterations over a PK
// supermatrix: density and Fock builds, DIIS, occupation selection and the
// Init → Iterating → Converged/Failed state machine.
package scf

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/MirzaevaIV/goHF/checkpoint"
	"github.com/MirzaevaIV/goHF/config"
	"github.com/MirzaevaIV/goHF/diagnostics"
	"github.com/MirzaevaIV/goHF/diis"
	"github.com/MirzaevaIV/goHF/integrals"
	"github.com/MirzaevaIV/goHF/symblock"
	"github.com/MirzaevaIV/goHF/system"
)

// State of the driver.
type State int

const (
	StateInit State = iota
	StateIterating
	StateConverged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateIterating:
		return "Iterating"
	case StateConverged:
		return "Converged"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result of a run. When the run fails to converge Energy is NaN.
type Result struct {
	State         State
	Energy        float64
	InitialEnergy float64
	Iterations    int
	Doccpi        []int
	Soccpi        []int
	Epsilon       *symblock.Vector
	C             *symblock.Matrix
	Feff          *symblock.Matrix
	// DIISVectors is the DIIS history length at the end of the run.
	DIISVectors int
	// Record is the persisted checkpoint of a converged run.
	Record *checkpoint.Record
}

// Converged reports whether the run reached the convergence criterion.
func (r *Result) Converged() bool { return r.State == StateConverged }

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithDiagnostics sets the per-iteration diagnostics sink.
func WithDiagnostics(s diagnostics.Sink) Option {
	return func(d *Driver) { d.diag = s }
}

// WithCheckpoint sets the sink receiving the converged wavefunction.
func WithCheckpoint(s checkpoint.Sink) Option {
	return func(d *Driver) { d.ckpt = s }
}

// WithInitialGuess starts from the given MO coefficients instead of the core
// Hamiltonian guess.
func WithInitialGuess(c *symblock.Matrix) Option {
	return func(d *Driver) { d.guess = c }
}

// WithGBuilder replaces the configured G-build strategy. The integral stream
// is then left unread.
func WithGBuilder(g GBuilder) Option {
	return func(d *Driver) { d.gb = g }
}

// Driver runs one SCF calculation. It is not safe for concurrent use.
type Driver struct {
	cfg    config.Config
	sys    *system.System
	stream integrals.Stream

	logger *slog.Logger
	diag   diagnostics.Sink
	ckpt   checkpoint.Sink
	guess  *symblock.Matrix

	ref          Reference
	gb           GBuilder
	history      *diis.History
	ndocc, nsocc int

	state         State
	wfn           *Wavefunction
	x             *symblock.Matrix
	sHalf         *symblock.Matrix
	initialEnergy float64
	energy        float64
	iter          int
}

// NewDriver validates the configuration against the system and prepares a
// run. cfg is copied; later changes to it have no effect.
func NewDriver(cfg *config.Config, sys *system.System, stream integrals.Stream, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ref, err := NewReference(cfg)
	if err != nil {
		return nil, err
	}
	ndocc, nsocc, err := ElectronCounts(sys.Electrons, cfg.Multiplicity, sys.Dims.Total())
	if err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:    *cfg,
		sys:    sys,
		stream: stream,
		ref:    ref,
		ndocc:  ndocc,
		nsocc:  nsocc,
		state:  StateInit,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.diag == nil {
		d.diag = diagnostics.Discard{}
	}
	if cfg.DIISEnabled {
		d.history = diis.New(cfg.DIISMaxVectors)
	}
	return d, nil
}

// State returns the current state.
func (d *Driver) State() State { return d.state }

// Run iterates to convergence or to the iteration cap. Failing to converge is
// not an error: the result carries StateFailed and a NaN energy. Errors are
// fatal conditions: unavailable algorithms, memory exhaustion without a
// fallback, broken symmetry, unreadable restart data.
func (d *Driver) Run() (*Result, error) {
	if d.state != StateInit {
		return nil, fmt.Errorf("scf: driver already ran (state %s)", d.state)
	}
	if err := d.init(); err != nil {
		d.state = StateFailed
		return nil, err
	}

	d.state = StateIterating
	d.logger.Info("starting iterations", "reference", d.ref.Name(), "algorithm", d.gb.Name(),
		"ndocc", d.ndocc, "nsocc", d.nsocc, "max_iterations", d.cfg.MaxIterations)
	w := d.wfn
	for d.iter < d.cfg.MaxIterations {
		d.iter++
		tstart := time.Now()

		w.DcOld.Copy(w.Dc)
		w.DoOld.Copy(w.Do)
		eOld := d.energy

		if err := d.ref.BuildFock(w, d.gb); err != nil {
			d.state = StateFailed
			return nil, fmt.Errorf("iteration %d: %w", d.iter, err)
		}
		d.energy = d.ref.ComputeEnergy(w)

		applied, diisErr := d.extrapolate()

		if err := d.formC(); err != nil {
			d.state = StateFailed
			return nil, fmt.Errorf("iteration %d: %w", d.iter, err)
		}
		d.ref.BuildDensity(w)

		it := diagnostics.Iteration{
			N:          d.iter,
			Energy:     d.energy,
			Delta:      d.energy - eOld,
			DIIS:       applied,
			DensityRMS: densityRMS(w.Dc, w.DcOld, w.Do, w.DoOld),
			DIISError:  diisErr,
			Doccpi:     append([]int(nil), w.Doccpi...),
			Soccpi:     append([]int(nil), w.Soccpi...),
		}
		d.diag.Iteration(it)
		d.logger.Debug("iteration done", "iter", d.iter, "elapsed", time.Since(tstart))

		if d.ref.TestConvergence(d.energy, eOld) {
			d.state = StateConverged
			break
		}
	}
	return d.finish()
}

func (d *Driver) init() error {
	x, sHalf, err := MatrixSqrtInverse(d.sys.S)
	if err != nil {
		return err
	}
	d.x, d.sHalf = x, sHalf

	if d.gb == nil {
		so := integrals.NewSOMap(d.sys.Dims)
		gb, err := NewGBuilder(d.cfg.Algorithm, d.stream, so, d.cfg.MemoryBudgetBytes, d.cfg.Workers(), d.logger)
		if err != nil {
			return err
		}
		d.gb = gb
	}

	d.wfn = newWavefunction(d.sys.H, d.sys.NuclearRepulsion)
	if err := d.initialOrbitals(); err != nil {
		return err
	}
	d.ref.BuildDensity(d.wfn)

	e0 := OneElectronEnergy(d.sys.NuclearRepulsion, d.sys.H, d.wfn.Dc, d.wfn.Do)
	d.logger.Info("initial energy", "energy", e0, "doccpi", d.wfn.Doccpi, "soccpi", d.wfn.Soccpi)
	d.initialEnergy = e0
	return nil
}

// initialOrbitals sets C and the starting occupations from, in order of
// preference, an explicit guess, a restart file or the core Hamiltonian.
func (d *Driver) initialOrbitals() error {
	w := d.wfn
	dims := d.sys.Dims
	switch {
	case d.guess != nil:
		if !d.guess.Dims().Equal(dims) {
			return fmt.Errorf("%w: initial guess dims %v, system has %v", checkpoint.ErrRestartMismatch, d.guess.Dims(), dims)
		}
		w.C = d.guess.Clone("MO coefficients")
		d.orbitalEnergiesFromH()
		w.Doccpi, w.Soccpi = SelectOccupation(w.Epsilon, d.ndocc, d.nsocc)
	case d.cfg.RestartFile != "":
		rec, err := checkpoint.Load(d.cfg.RestartFile)
		if err != nil {
			return err
		}
		c, err := rec.Coefficients(dims)
		if err != nil {
			return err
		}
		w.C = c
		w.C.Name = "MO coefficients"
		if sum(rec.Doccpi) == d.ndocc && sum(rec.Soccpi) == d.nsocc && len(rec.Doccpi) == len(dims) && len(rec.Soccpi) == len(dims) {
			copy(w.Doccpi, rec.Doccpi)
			copy(w.Soccpi, rec.Soccpi)
		} else {
			d.orbitalEnergiesFromH()
			w.Doccpi, w.Soccpi = SelectOccupation(w.Epsilon, d.ndocc, d.nsocc)
		}
		d.logger.Info("read in previous MOs", "file", d.cfg.RestartFile, "run_id", rec.RunID)
	default:
		c, eps, err := CoreGuess(d.sys.H, d.x)
		if err != nil {
			return err
		}
		w.C = c
		w.Epsilon.Copy(eps)
		w.Doccpi, w.Soccpi = SelectOccupation(eps, d.ndocc, d.nsocc)
	}
	return nil
}

// orbitalEnergiesFromH estimates orbital energies as the diagonal of CᵗHC.
func (d *Driver) orbitalEnergiesFromH() {
	w := d.wfn
	hmo := symblock.NewMatrix("core Hamiltonian (MO)", d.sys.Dims)
	hmo.TransformOf(d.sys.H, w.C)
	for h, n := range d.sys.Dims {
		for i := 0; i < n; i++ {
			w.Epsilon.Set(h, i, hmo.At(h, i, i))
		}
	}
}

// extrapolate stores the current Feff in the DIIS history and replaces it
// by the extrapolated one on eligible iterations. Both the error vector
// (Feff with its diagonal removed) and the Fock snapshot are rotated to the
// orthogonal basis with U = S^{1/2}·C, so snapshots taken with different
// orbitals are comparable; the result is rotated back with the current U.
func (d *Driver) extrapolate() (bool, float64) {
	if d.history == nil {
		return false, 0
	}
	if d.iter < d.cfg.DIISMinVectors || d.iter%d.cfg.DIISCadence != 0 {
		return false, 0
	}
	w := d.wfn
	u := symblock.NewMatrix("S^1/2 C", d.sys.Dims)
	u.Product(d.sHalf, w.C)

	e := w.Feff.Clone("DIIS error vector")
	e.ZeroDiagonal()
	e.BackTransform(u)
	f := w.Feff.Clone("DIIS Fock")
	f.BackTransform(u)
	d.history.Add(e, f)
	rms := d.history.ErrorRMS()

	if _, ok := d.history.Extrapolate(f); !ok {
		d.logger.Debug("DIIS system singular, extrapolation skipped", "iter", d.iter, "vectors", d.history.Len())
		return false, rms
	}
	f.Transform(u)
	w.Feff.Copy(f)
	return true, rms
}

// formC diagonalizes Feff, reselects occupations and rotates C.
func (d *Driver) formC() error {
	w := d.wfn
	eigvec, eps, err := w.Feff.Diagonalize()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNumericalInstability, err)
	}
	w.Epsilon.Copy(eps)
	w.Doccpi, w.Soccpi = SelectOccupation(eps, d.ndocc, d.nsocc)
	c := symblock.NewMatrix("MO coefficients", d.sys.Dims)
	c.Product(w.C, eigvec)
	w.C = c
	return nil
}

func (d *Driver) finish() (*Result, error) {
	w := d.wfn
	res := &Result{
		State:         d.state,
		Energy:        d.energy,
		InitialEnergy: d.initialEnergy,
		Iterations:    d.iter,
		Doccpi:        append([]int(nil), w.Doccpi...),
		Soccpi:        append([]int(nil), w.Soccpi...),
		Epsilon:       w.Epsilon,
		C:             w.C,
		Feff:          w.Feff,
	}
	if d.history != nil {
		res.DIISVectors = d.history.Len()
	}

	if d.state != StateConverged {
		d.state = StateFailed
		res.State = StateFailed
		res.Energy = math.NaN()
		d.logger.Warn("failed to converge", "reference", d.ref.Name(), "iterations", d.iter, "last_energy", d.energy)
		d.diag.Finish(diagnostics.Summary{Reference: d.ref.Name(), Iterations: d.iter})
		return res, nil
	}

	d.logger.Info("energy converged", "reference", d.ref.Name(), "energy", d.energy, "iterations", d.iter)
	d.diag.Finish(diagnostics.Summary{Reference: d.ref.Name(), Converged: true, Energy: d.energy, Iterations: d.iter})

	res.Record = d.record()
	if d.ckpt != nil {
		if err := d.ckpt.Save(res.Record); err != nil {
			return res, fmt.Errorf("save checkpoint: %w", err)
		}
	}
	return res, nil
}

func (d *Driver) record() *checkpoint.Record {
	w := d.wfn
	orbs := checkpoint.SortOrbitals(w.Epsilon, d.sys.Labels, w.Doccpi, w.Soccpi)
	nirrep := d.sys.Dims.NIrrep()
	return &checkpoint.Record{
		RunID:            checkpoint.NewRunID(),
		Reference:        d.ref.Name(),
		TotalEnergy:      d.energy,
		ReferenceEnergy:  d.energy,
		NuclearRepulsion: d.sys.NuclearRepulsion,
		Iterations:       d.iter,
		Labels:           append([]string(nil), d.sys.Labels...),
		Orbspi:           append([]int(nil), d.sys.Dims...),
		Doccpi:           append([]int(nil), w.Doccpi...),
		Soccpi:           append([]int(nil), w.Soccpi...),
		Frzcpi:           checkpoint.FrozenPerIrrep(orbs, nirrep, d.cfg.FrozenCore, false),
		Frzvpi:           checkpoint.FrozenPerIrrep(orbs, nirrep, d.cfg.FrozenVirtual, true),
		IOpen:            checkpoint.OpenShellCode(w.Soccpi),
		Orbitals:         orbs,
		Epsilon:          checkpoint.VectorBlocks(w.Epsilon),
		C:                checkpoint.Blocks(w.C),
		Feff:             checkpoint.Blocks(w.Feff),
	}
}

func sum(v []int) int {
	res := 0
	for _, n := range v {
		res += n
	}
	return res
}

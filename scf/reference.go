// reference.go --  This file is part of goHF project.
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
package scf

import (
	"fmt"
	"math"

	"github.com/MirzaevaIV/goHF/config"
	"github.com/MirzaevaIV/goHF/symblock"
)

// Wavefunction is the mutable state of one SCF run. It is owned by the
// driver goroutine.
type Wavefunction struct {
	H                *symblock.Matrix
	NuclearRepulsion float64

	C       *symblock.Matrix
	Epsilon *symblock.Vector
	Doccpi  []int
	Soccpi  []int

	Dc, Do       *symblock.Matrix
	DcOld, DoOld *symblock.Matrix
	Gc, Go       *symblock.Matrix
	Fc, Fo       *symblock.Matrix
	Feff         *symblock.Matrix
}

func newWavefunction(h *symblock.Matrix, enuc float64) *Wavefunction {
	dims := h.Dims()
	return &Wavefunction{
		H:                h,
		NuclearRepulsion: enuc,
		Epsilon:          symblock.NewVector("orbital energies", dims),
		Doccpi:           make([]int, len(dims)),
		Soccpi:           make([]int, len(dims)),
		Dc:               symblock.NewMatrix("Dc", dims),
		Do:               symblock.NewMatrix("Do", dims),
		DcOld:            symblock.NewMatrix("Dc old", dims),
		DoOld:            symblock.NewMatrix("Do old", dims),
		Gc:               symblock.NewMatrix("Gc", dims),
		Go:               symblock.NewMatrix("Go", dims),
		Fc:               symblock.NewMatrix("Fc", dims),
		Fo:               symblock.NewMatrix("Fo", dims),
		Feff:             symblock.NewMatrix("Feff", dims),
	}
}

// Reference is one Hartree-Fock variant.
type Reference interface {
	Name() string
	BuildDensity(w *Wavefunction)
	BuildFock(w *Wavefunction, g GBuilder) error
	ComputeEnergy(w *Wavefunction) float64
	TestConvergence(e, eOld float64) bool
}

// NewReference returns the variant named by the configuration.
func NewReference(cfg *config.Config) (Reference, error) {
	switch cfg.Reference {
	case config.ROHF:
		return &ROHF{Threshold: cfg.EnergyConvergenceThreshold}, nil
	case config.RHF:
		return &RHF{Threshold: cfg.EnergyConvergenceThreshold}, nil
	}
	return nil, fmt.Errorf("%w: %s reference", ErrNotImplemented, cfg.Reference)
}

// ROHF is the restricted open-shell reference.
type ROHF struct {
	Threshold float64
}

func (r *ROHF) Name() string { return config.ROHF }

func (r *ROHF) BuildDensity(w *Wavefunction) {
	FormDensity(w.C, w.Doccpi, w.Soccpi, w.Dc, w.Do)
}

func (r *ROHF) BuildFock(w *Wavefunction, g GBuilder) error {
	if err := g.BuildG(w.Dc, w.Do, w.Gc, w.Go); err != nil {
		return fmt.Errorf("%s G build: %w", g.Name(), err)
	}
	FormFock(w.H, w.Gc, w.Go, w.C, w.Doccpi, w.Soccpi, w.Fc, w.Fo, w.Feff)
	return nil
}

func (r *ROHF) ComputeEnergy(w *Wavefunction) float64 {
	return ComputeEnergy(w.NuclearRepulsion, w.H, w.Dc, w.Do, w.Fc, w.Fo)
}

func (r *ROHF) TestConvergence(e, eOld float64) bool {
	return math.Abs(e-eOld) < r.Threshold
}

// RHF is the closed-shell reference. The open-shell density stays zero and
// Feff is the closed-shell Fock matrix in the MO basis.
type RHF struct {
	Threshold float64
}

func (r *RHF) Name() string { return config.RHF }

func (r *RHF) BuildDensity(w *Wavefunction) {
	for h := range w.Soccpi {
		if w.Soccpi[h] != 0 {
			panic(fmt.Sprintf("scf: RHF with %d singly occupied orbitals in irrep %d", w.Soccpi[h], h))
		}
	}
	FormDensity(w.C, w.Doccpi, w.Soccpi, w.Dc, w.Do)
}

func (r *RHF) BuildFock(w *Wavefunction, g GBuilder) error {
	if err := g.BuildG(w.Dc, w.Do, w.Gc, w.Go); err != nil {
		return fmt.Errorf("%s G build: %w", g.Name(), err)
	}
	w.Fc.Copy(w.H)
	w.Fc.Add(w.Gc)
	w.Fo.Copy(w.H)
	w.Fo.Scale(0.5)
	w.Fo.Add(w.Go)
	w.Feff.TransformOf(w.Fc, w.C)
	return nil
}

func (r *RHF) ComputeEnergy(w *Wavefunction) float64 {
	hfc := w.H.Clone("H+Fc")
	hfc.Add(w.Fc)
	return w.NuclearRepulsion + w.Dc.VectorDot(hfc)
}

func (r *RHF) TestConvergence(e, eOld float64) bool {
	return math.Abs(e-eOld) < r.Threshold
}

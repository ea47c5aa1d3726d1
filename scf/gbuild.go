// gbuild.go --  This file is part of goHF project.
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
	"errors"
	"fmt"
	"log/slog"

	"github.com/MirzaevaIV/goHF/config"
	"github.com/MirzaevaIV/goHF/integrals"
	"github.com/MirzaevaIV/goHF/pk"
	"github.com/MirzaevaIV/goHF/symblock"
)

// GBuilder forms the two-electron parts of the closed and open Fock
// matrices from the current densities.
type GBuilder interface {
	Name() string
	BuildG(dc, do, gc, gOpen *symblock.Matrix) error
}

// PKBuilder contracts densities with an in-core PK supermatrix.
type PKBuilder struct {
	Supermatrix *pk.Supermatrix
	Workers     int
}

func (b *PKBuilder) Name() string { return config.AlgorithmPK }

func (b *PKBuilder) BuildG(dc, do, gc, gOpen *symblock.Matrix) error {
	return b.Supermatrix.Contract(dc, do, gc, gOpen, b.Workers)
}

// NewGBuilder selects the G-build strategy for algorithm. Only PK is
// available; when the PK arrays do not fit the memory budget the out-of-core
// strategy is tried, which is not available either, so the run stops with an
// error matching both pk.ErrResourceExhausted and ErrNotImplemented.
func NewGBuilder(algorithm string, stream integrals.Stream, so *integrals.SOMap, budget int64, workers int, logger *slog.Logger) (GBuilder, error) {
	switch algorithm {
	case config.AlgorithmPK:
		s, err := pk.Build(stream, so, budget, logger)
		if errors.Is(err, pk.ErrResourceExhausted) {
			logger.Warn("insufficient memory for in-core PK, switching to out-of-core algorithm", "err", err)
			_, ferr := NewGBuilder(config.AlgorithmOutOfCore, stream, so, budget, workers, logger)
			return nil, fmt.Errorf("%w; %w", err, ferr)
		}
		if err != nil {
			return nil, err
		}
		return &PKBuilder{Supermatrix: s, Workers: workers}, nil
	case config.AlgorithmOutOfCore, config.AlgorithmDirect, config.AlgorithmDF, config.AlgorithmCD:
		return nil, fmt.Errorf("%w: %s G build", ErrNotImplemented, algorithm)
	}
	return nil, fmt.Errorf("%w: unknown algorithm %q", ErrNotImplemented, algorithm)
}

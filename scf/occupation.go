// occupation.go --  This file is part of goHF project.
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

	"golang.org/x/exp/slices"

	"github.com/MirzaevaIV/goHF/symblock"
)

var (
	// ErrNotImplemented marks a declared but unavailable path. It is fatal.
	ErrNotImplemented = errors.New("scf: not implemented")
	// ErrBadOccupation means the electron count and multiplicity cannot be
	// placed in the available orbitals.
	ErrBadOccupation = errors.New("scf: bad occupation")
	// ErrNumericalInstability means a matrix that must be symmetric is not,
	// or the overlap is not positive definite. It signals a construction bug
	// upstream and is fatal.
	ErrNumericalInstability = errors.New("scf: numerical instability")
)

// ElectronCounts derives the numbers of doubly and singly occupied orbitals
// from the electron count and the spin multiplicity.
func ElectronCounts(nelec, multiplicity, nmo int) (ndocc, nsocc int, err error) {
	if multiplicity < 1 {
		return 0, 0, fmt.Errorf("%w: multiplicity %d", ErrBadOccupation, multiplicity)
	}
	nsocc = multiplicity - 1
	if nsocc > nelec {
		return 0, 0, fmt.Errorf("%w: multiplicity %d needs %d unpaired electrons, only %d available",
			ErrBadOccupation, multiplicity, nsocc, nelec)
	}
	if (nelec-nsocc)%2 != 0 {
		return 0, 0, fmt.Errorf("%w: %d electrons cannot have multiplicity %d", ErrBadOccupation, nelec, multiplicity)
	}
	ndocc = (nelec - nsocc) / 2
	if ndocc+nsocc > nmo {
		return 0, 0, fmt.Errorf("%w: %d occupied orbitals requested, %d available", ErrBadOccupation, ndocc+nsocc, nmo)
	}
	return ndocc, nsocc, nil
}

type eigPair struct {
	value float64
	irrep int
}

// SelectOccupation orders all orbital energies across irreps, stably, and
// fills the lowest ndocc doubly and the next nsocc singly. Ties keep irrep
// order, so the choice is reproducible.
func SelectOccupation(eps *symblock.Vector, ndocc, nsocc int) (doccpi, soccpi []int) {
	nirrep := eps.NIrrep()
	pairs := make([]eigPair, 0, eps.Dims().Total())
	for h := 0; h < nirrep; h++ {
		for _, v := range eps.Block(h) {
			pairs = append(pairs, eigPair{value: v, irrep: h})
		}
	}
	slices.SortStableFunc(pairs, func(a, b eigPair) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		}
		return 0
	})

	doccpi = make([]int, nirrep)
	soccpi = make([]int, nirrep)
	for i := 0; i < ndocc && i < len(pairs); i++ {
		doccpi[pairs[i].irrep]++
	}
	for i := ndocc; i < ndocc+nsocc && i < len(pairs); i++ {
		soccpi[pairs[i].irrep]++
	}
	return doccpi, soccpi
}

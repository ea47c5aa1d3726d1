// stream.go --  This file is part of goHF project.
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

// Package integrals defines the read contract for pre-computed two-electron
// integrals over symmetry orbitals and the SO index bookkeeping around it.
package integrals

import (
	"errors"
	"fmt"
)

// DefaultBufferSize is the number of records handed out per chunk.
const DefaultBufferSize = 2980

// ErrExhausted is returned by Next after the last buffer was delivered.
var ErrExhausted = errors.New("integrals: stream already consumed")

// Record is one two-electron integral (ij|kl) in chemists' notation over
// global SO indices.
type Record struct {
	I, J, K, L int
	Value      float64
}

func (r Record) String() string {
	return fmt.Sprintf("(%d %d|%d %d) = %.14f", r.I, r.J, r.K, r.L, r.Value)
}

// Stream hands out integral records in chunks. last is true on the final
// chunk; any further call returns ErrExhausted. A stream is read once.
type Stream interface {
	Next() (buf []Record, last bool, err error)
}

// SliceStream serves records from memory.
type SliceStream struct {
	records []Record
	size    int
	pos     int
	done    bool
}

// NewSliceStream returns a stream over records with the given chunk size
// (DefaultBufferSize when size <= 0).
func NewSliceStream(records []Record, size int) *SliceStream {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &SliceStream{records: records, size: size}
}

func (s *SliceStream) Next() ([]Record, bool, error) {
	if s.done {
		return nil, true, ErrExhausted
	}
	end := s.pos + s.size
	if end >= len(s.records) {
		end = len(s.records)
		s.done = true
	}
	buf := s.records[s.pos:end]
	s.pos = end
	return buf, s.done, nil
}

// ReadAll drains a stream into one slice.
func ReadAll(s Stream) ([]Record, error) {
	var res []Record
	for {
		buf, last, err := s.Next()
		if err != nil {
			return nil, err
		}
		res = append(res, buf...)
		if last {
			return res, nil
		}
	}
}

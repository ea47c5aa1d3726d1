// file.go --  This file is part of goHF project.
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
package integrals

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FileStream reads "i j k l value" lines. Blank lines and lines starting
// with '#' are ignored.
type FileStream struct {
	scanner *bufio.Scanner
	closer  io.Closer
	size    int
	line    int
	done    bool
}

// OpenFile opens fname as an integral stream. The file is closed when the
// last buffer has been read or on the first error.
func OpenFile(fname string, size int) (*FileStream, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	s := NewReaderStream(file, size)
	s.closer = file
	return s, nil
}

// NewReaderStream wraps any reader.
func NewReaderStream(r io.Reader, size int) *FileStream {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &FileStream{scanner: bufio.NewScanner(r), size: size}
}

func (s *FileStream) Next() ([]Record, bool, error) {
	if s.done {
		return nil, true, ErrExhausted
	}
	buf := make([]Record, 0, s.size)
	for len(buf) < s.size {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.finish()
				return nil, true, err
			}
			s.finish()
			return buf, true, nil
		}
		s.line++
		words := strings.Fields(s.scanner.Text())
		if len(words) == 0 || strings.HasPrefix(words[0], "#") {
			continue
		}
		rec, err := parseRecord(words)
		if err != nil {
			s.finish()
			return nil, true, fmt.Errorf("integrals: line %d: %w", s.line, err)
		}
		buf = append(buf, rec)
	}
	return buf, false, nil
}

func (s *FileStream) finish() {
	s.done = true
	if s.closer != nil {
		s.closer.Close()
		s.closer = nil
	}
}

func parseRecord(words []string) (Record, error) {
	var rec Record
	if len(words) != 5 {
		return rec, fmt.Errorf("want 5 fields, got %d", len(words))
	}
	var idx [4]int
	for n := 0; n < 4; n++ {
		v, err := strconv.Atoi(words[n])
		if err != nil {
			return rec, err
		}
		idx[n] = v
	}
	val, err := strconv.ParseFloat(words[4], 64)
	if err != nil {
		return rec, err
	}
	return Record{I: idx[0], J: idx[1], K: idx[2], L: idx[3], Value: val}, nil
}

// WriteRecords writes records in the format FileStream reads.
func WriteRecords(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d %.16e\n", r.I, r.J, r.K, r.L, r.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// system.go --  This file is part of goHF project.
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

// Package system reads the one-electron side of an SCF problem: the irrep
// table, overlap and core Hamiltonian in the SO basis, the nuclear repulsion
// and the electron count.
//
// The input is a block text file:
//
//	irreps A1 A2 B1 B2
//	dims 3 1 2 2
//	electrons 9
//	nuclear_repulsion 9.168193
//	overlap
//	  h i j value
//	  ...
//	end
//	hamiltonian
//	  h i j value
//	  ...
//	end
//
// Matrix entries are 0-based within their irrep and filled symmetrically;
// missing entries are zero. Lines starting with # are ignored.
package system

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MirzaevaIV/goHF/symblock"
)

// ErrFormat is wrapped by every parse failure.
var ErrFormat = errors.New("system: bad input")

// System is the immutable one-electron input of an SCF run.
type System struct {
	Labels           []string
	Dims             symblock.Dims
	Electrons        int
	NuclearRepulsion float64
	S                *symblock.Matrix
	H                *symblock.Matrix
}

// ReadFileLines returns the lines of a text file.
func ReadFileLines(fname string) ([]string, error) {
	var result []string

	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}

// Load reads and parses a system file.
func Load(fname string) (*System, error) {
	data, err := ReadFileLines(fname)
	if err != nil {
		return nil, fmt.Errorf("read system %s: %w", fname, err)
	}
	sys, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return sys, nil
}

// Parse builds a System from input lines.
func Parse(data []string) (*System, error) {
	sys := &System{Electrons: -1}
	var overlap, hamiltonian [2]int
	var haveNuc bool

	for i := 0; i < len(data); i++ {
		words := fields(data[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "irreps":
			sys.Labels = append([]string(nil), words[1:]...)
		case "dims":
			dims := make(symblock.Dims, len(words)-1)
			for n, w := range words[1:] {
				v, err := strconv.Atoi(w)
				if err != nil || v < 0 {
					return nil, fmt.Errorf("%w: line %d: bad dimension %q", ErrFormat, i+1, w)
				}
				dims[n] = v
			}
			sys.Dims = dims
		case "electrons":
			v, err := intArg(words, i)
			if err != nil {
				return nil, err
			}
			sys.Electrons = v
		case "nuclear_repulsion":
			if len(words) != 2 {
				return nil, fmt.Errorf("%w: line %d: nuclear_repulsion takes one value", ErrFormat, i+1)
			}
			v, err := strconv.ParseFloat(words[1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, i+1, err)
			}
			sys.NuclearRepulsion = v
			haveNuc = true
		case "overlap":
			end, err := findBlockEnd(i, data, "overlap")
			if err != nil {
				return nil, err
			}
			overlap = [2]int{i + 1, end}
			i = end
		case "hamiltonian":
			end, err := findBlockEnd(i, data, "hamiltonian")
			if err != nil {
				return nil, err
			}
			hamiltonian = [2]int{i + 1, end}
			i = end
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrFormat, i+1, words[0])
		}
	}

	if len(sys.Dims) == 0 {
		return nil, fmt.Errorf("%w: no dims", ErrFormat)
	}
	if len(sys.Labels) == 0 {
		for h := range sys.Dims {
			sys.Labels = append(sys.Labels, fmt.Sprintf("Irrep%d", h+1))
		}
	}
	if len(sys.Labels) != len(sys.Dims) {
		return nil, fmt.Errorf("%w: %d irrep labels for %d dims", ErrFormat, len(sys.Labels), len(sys.Dims))
	}
	if sys.Electrons < 0 {
		return nil, fmt.Errorf("%w: no electron count", ErrFormat)
	}
	if !haveNuc {
		return nil, fmt.Errorf("%w: no nuclear_repulsion", ErrFormat)
	}
	if overlap[1] == 0 {
		return nil, fmt.Errorf("%w: no overlap block", ErrFormat)
	}
	if hamiltonian[1] == 0 {
		return nil, fmt.Errorf("%w: no hamiltonian block", ErrFormat)
	}

	var err error
	if sys.S, err = readMatrix("SO overlap", sys.Dims, data, overlap[0], overlap[1]); err != nil {
		return nil, err
	}
	if sys.H, err = readMatrix("SO core Hamiltonian", sys.Dims, data, hamiltonian[0], hamiltonian[1]); err != nil {
		return nil, err
	}
	for h, n := range sys.Dims {
		for i := 0; i < n; i++ {
			if sys.S.At(h, i, i) <= 0 {
				return nil, fmt.Errorf("%w: overlap diagonal (%d,%d,%d) is not positive", ErrFormat, h, i, i)
			}
		}
	}
	return sys, nil
}

// NSO returns the total number of symmetry orbitals.
func (s *System) NSO() int { return s.Dims.Total() }

// Write emits the system in the format Parse reads.
func Write(w io.Writer, s *System) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "irreps %s\n", strings.Join(s.Labels, " "))
	fmt.Fprint(bw, "dims")
	for _, n := range s.Dims {
		fmt.Fprintf(bw, " %d", n)
	}
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "electrons %d\n", s.Electrons)
	fmt.Fprintf(bw, "nuclear_repulsion %.16e\n", s.NuclearRepulsion)
	for _, blk := range []struct {
		name string
		m    *symblock.Matrix
	}{{"overlap", s.S}, {"hamiltonian", s.H}} {
		fmt.Fprintln(bw, blk.name)
		for h, n := range s.Dims {
			for i := 0; i < n; i++ {
				for j := 0; j <= i; j++ {
					if v := blk.m.At(h, i, j); v != 0 {
						fmt.Fprintf(bw, "  %d %d %d %.16e\n", h, i, j, v)
					}
				}
			}
		}
		fmt.Fprintln(bw, "end")
	}
	return bw.Flush()
}

func fields(line string) []string {
	if k := strings.IndexByte(line, '#'); k >= 0 {
		line = line[:k]
	}
	return strings.Fields(line)
}

func intArg(words []string, line int) (int, error) {
	if len(words) != 2 {
		return 0, fmt.Errorf("%w: line %d: %s takes one value", ErrFormat, line+1, words[0])
	}
	v, err := strconv.Atoi(words[1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: line %d: bad %s %q", ErrFormat, line+1, words[0], words[1])
	}
	return v, nil
}

func findBlockEnd(n int, data []string, bname string) (int, error) {
	for i := n + 1; i < len(data); i++ {
		words := fields(data[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no end of block %s", ErrFormat, bname)
}

// readMatrix fills a symmetric blocked matrix from "h i j value" lines in
// data[start:end].
func readMatrix(name string, dims symblock.Dims, data []string, start, end int) (*symblock.Matrix, error) {
	m := symblock.NewMatrix(name, dims)
	for i := start; i < end; i++ {
		words := fields(data[i])
		if len(words) == 0 {
			continue
		}
		if len(words) != 4 {
			return nil, fmt.Errorf("%w: line %d: want \"h i j value\", got %d fields", ErrFormat, i+1, len(words))
		}
		var idx [3]int
		for n := 0; n < 3; n++ {
			v, err := strconv.Atoi(words[n])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, i+1, err)
			}
			idx[n] = v
		}
		h, p, q := idx[0], idx[1], idx[2]
		if h < 0 || h >= len(dims) || p < 0 || p >= dims[h] || q < 0 || q >= dims[h] {
			return nil, fmt.Errorf("%w: line %d: element (%d,%d,%d) outside dims %v", ErrFormat, i+1, h, p, q, dims)
		}
		v, err := strconv.ParseFloat(words[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, i+1, err)
		}
		m.Set(h, p, q, v)
		m.Set(h, q, p, v)
	}
	return m, nil
}

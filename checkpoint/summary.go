// summary.go --  This file is part of goHF project.
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
package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSummary prints the final occupation vectors and orbital energies,
// four orbitals per line, grouped by occupation. With printMOs the MO
// coefficients follow, one irrep at a time.
func WriteSummary(w io.Writer, rec *Record, printMOs bool) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\n  Final DOCC vector = (%s)\n", occVector(rec.Doccpi, rec.Labels))
	fmt.Fprintf(bw, "  Final SOCC vector = (%s)\n", occVector(rec.Soccpi, rec.Labels))

	fmt.Fprint(bw, "\n  Orbital energies (a.u.):\n")
	for _, group := range []struct {
		title string
		occ   int
	}{{"Doubly occupied orbitals", 2}, {"Singly occupied orbitals", 1}, {"Unoccupied orbitals", 0}} {
		fmt.Fprintf(bw, "    %s\n      ", group.title)
		n := 0
		for _, o := range rec.Orbitals {
			if o.Occupation != group.occ {
				continue
			}
			fmt.Fprintf(bw, "%12.6f %3s  ", o.Energy, o.Label)
			n++
			if n%4 == 0 {
				fmt.Fprint(bw, "\n      ")
			}
		}
		fmt.Fprint(bw, "\n\n")
	}

	if printMOs {
		fmt.Fprint(bw, "  Molecular orbitals:\n")
		for h, blk := range rec.C {
			if len(blk) == 0 {
				continue
			}
			fmt.Fprintf(bw, "  Irrep: %s\n", rec.Labels[h])
			fmt.Fprint(bw, "          ")
			for j := range blk {
				fmt.Fprintf(bw, "%12.6f", rec.Epsilon[h][j])
			}
			fmt.Fprintln(bw)
			for i, row := range blk {
				fmt.Fprintf(bw, "    %4d  ", i+1)
				for _, v := range row {
					fmt.Fprintf(bw, "%12.6f", v)
				}
				fmt.Fprintln(bw)
			}
		}
	}
	return bw.Flush()
}

func occVector(occ []int, labels []string) string {
	parts := make([]string, len(occ))
	for h, n := range occ {
		parts[h] = fmt.Sprintf("%2d %3s", n, labels[h])
	}
	return strings.Join(parts, " ")
}

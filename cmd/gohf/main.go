// main.go --  This file is part of goHF project.
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

// Command gohf runs restricted open-shell Hartree-Fock calculations over
// precomputed SO-basis integrals.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/MirzaevaIV/goHF/config"
)

const (
	Version = "0.2.0"
	appName = "gohf"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errNotConverged) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Restricted open-shell Hartree-Fock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(runCmd(), configCmd(), synthCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <system file>",
		Short: "Run an SCF calculation",
		Long: `Run reads the overlap and core Hamiltonian from the system file and the
two-electron integrals from the integral file, iterates to convergence and
writes a summary to the output file.

The exit status is 3 when the iterations do not converge.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.systemPath = args[0]
			return run(opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.integralsPath, "integrals", "i", "", "Two-electron integral file (required)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file (default: system file with .out extension)")
	cmd.Flags().StringVar(&opts.checkpointPath, "checkpoint", "", "Write the converged wavefunction to this YAML file")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics", "", "Write Prometheus metrics in text format to this file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("integrals")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <file>",
		Short: "Write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DefaultConfig().SaveToFile(args[0])
		},
	}
}

func synthCmd() *cobra.Command {
	var opts synthOptions
	cmd := &cobra.Command{
		Use:   "synth <system file> <integral file>",
		Short: "Generate a synthetic test problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return synth(opts, args[0], args[1])
		},
	}
	cmd.Flags().IntSliceVar(&opts.dims, "dims", []int{3, 1, 2, 2}, "Orbitals per irrep")
	cmd.Flags().StringSliceVar(&opts.labels, "labels", []string{"A1", "A2", "B1", "B2"}, "Irrep labels")
	cmd.Flags().IntVar(&opts.electrons, "electrons", 9, "Electron count")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "Random seed")
	return cmd
}

// app.go --  This file is part of goHF project.
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
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MirzaevaIV/goHF/checkpoint"
	"github.com/MirzaevaIV/goHF/config"
	"github.com/MirzaevaIV/goHF/diagnostics"
	"github.com/MirzaevaIV/goHF/integrals"
	"github.com/MirzaevaIV/goHF/scf"
	"github.com/MirzaevaIV/goHF/symblock"
	"github.com/MirzaevaIV/goHF/system"
)

var errNotConverged = errors.New("SCF did not converge")

type runOptions struct {
	systemPath     string
	integralsPath  string
	configPath     string
	outputPath     string
	checkpointPath string
	metricsPath    string
	logLevel       string
}

type synthOptions struct {
	dims      []int
	labels    []string
	electrons int
	seed      int64
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// outputName replaces the extension of the input file with .out.
func outputName(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".out"
}

func appInfo(w io.Writer) {
	fmt.Fprintln(w, "\n              __  __  ____      |\n             /\\ \\/\\ \\/\\  __\\    |"+
		" Author: Mirzaeva Irina Valerievna\n   __     ___\\ \\ \\_\\ \\ \\ \\_/    | email: dairdre@gmail.com\n"+
		" /'_ `\\  / __`\\ \\  _  \\ \\  _\\   | Nikolaev Institute of Inorganic Chemistry SB RAS"+
		" (http://niic.nsc.ru/)\n/\\ \\L\\ \\/\\ \\L\\ \\ \\ \\ \\ \\ \\ \\/   | Novosibirsk, Russia"+
		"\n\\ \\____ \\ \\____/\\ \\_\\ \\_\\ \\_\\   | HF stands for Himicheskaya Fizika\n \\/___L\\"+
		" \\/___/  \\/_/\\/_/\\/_/   | Have Fun!!!\n   /\\____/                      |\n   \\_/__/                       |")
}

func printOutputDelimiter(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 70))
}

// run performs one calculation. The output file receives the banner, the
// echoed input, the iteration log and the final summary; stdout gets the
// final energy only.
func run(opts runOptions, stdout io.Writer) error {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outPath := opts.outputPath
	if outPath == "" {
		outPath = outputName(opts.systemPath)
	}
	out, err := os.OpenFile(outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, out), &slog.HandlerOptions{Level: parseLevel(opts.logLevel)}))
	logger.Info("Starting goHF", "version", Version, "output", outPath)
	appInfo(out)

	lines, err := system.ReadFileLines(opts.systemPath)
	if err != nil {
		return fmt.Errorf("read system: %w", err)
	}
	fmt.Fprintln(out, "Input file content:")
	printOutputDelimiter(out)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	printOutputDelimiter(out)

	sys, err := system.Parse(lines)
	if err != nil {
		return err
	}
	stream, err := integrals.OpenFile(opts.integralsPath, integrals.DefaultBufferSize)
	if err != nil {
		return fmt.Errorf("open integrals: %w", err)
	}

	prom := diagnostics.NewPrometheusSink(cfg.Reference)
	driverOpts := []scf.Option{
		scf.WithLogger(logger),
		scf.WithDiagnostics(diagnostics.Multi(diagnostics.NewLogSink(logger), prom)),
	}
	if opts.checkpointPath != "" {
		driverOpts = append(driverOpts, scf.WithCheckpoint(checkpoint.YAMLFile{Path: opts.checkpointPath}))
	}
	d, err := scf.NewDriver(cfg, sys, stream, driverOpts...)
	if err != nil {
		return err
	}

	tstart := time.Now()
	res, err := d.Run()
	if opts.metricsPath != "" {
		if merr := prom.WriteTextfile(opts.metricsPath); merr != nil {
			logger.Warn("cannot write metrics", "err", merr)
		}
	}
	if err != nil {
		logger.Error("SCF aborted", "err", err)
		return err
	}
	logger.Info("SCF finished", "state", res.State, "elapsed", time.Since(tstart))

	printOutputDelimiter(out)
	fmt.Fprintf(out, "Nuclear repulsion energy = %20.12f a.u.\n", sys.NuclearRepulsion)
	if !res.Converged() {
		fmt.Fprintf(out, "SCF failed to converge in %d iterations\n", res.Iterations)
		printOutputDelimiter(out)
		return fmt.Errorf("%w in %d iterations", errNotConverged, res.Iterations)
	}
	if err := checkpoint.WriteSummary(out, res.Record, cfg.PrintMOs); err != nil {
		return err
	}
	fmt.Fprintf(out, "Final total energy = %20.12f a.u.\n", res.Energy)
	printOutputDelimiter(out)
	fmt.Fprintf(stdout, "Final total energy = %.12f a.u.\n", res.Energy)
	return nil
}

// synth writes a random but well-conditioned system and matching integrals.
func synth(opts synthOptions, systemPath, integralsPath string) error {
	if len(opts.labels) != len(opts.dims) {
		return fmt.Errorf("%d labels for %d irreps", len(opts.labels), len(opts.dims))
	}
	dims := symblock.Dims(opts.dims)
	sys := system.Synthetic(opts.labels, dims, opts.electrons, opts.seed)
	if err := writeFile(systemPath, func(w io.Writer) error { return system.Write(w, sys) }); err != nil {
		return err
	}
	records := integrals.Synthetic(dims, opts.seed)
	return writeFile(integralsPath, func(w io.Writer) error { return integrals.WriteRecords(w, records) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

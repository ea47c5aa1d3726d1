// prometheus.go --  This file is part of goHF project.
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
package diagnostics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports SCF progress as Prometheus metrics on a private
// registry. Batch runs dump it with WriteTextfile for the node exporter
// textfile collector.
type PrometheusSink struct {
	registry   *prometheus.Registry
	iterations prometheus.Counter
	diis       prometheus.Counter
	energy     prometheus.Gauge
	delta      prometheus.Gauge
	densityRMS prometheus.Gauge
	converged  prometheus.Gauge
}

// NewPrometheusSink registers the SCF metrics. Every metric carries the
// reference name as a constant label.
func NewPrometheusSink(reference string) *PrometheusSink {
	labels := prometheus.Labels{"reference": reference}
	p := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "iterations_total",
			Help: "SCF iterations performed.", ConstLabels: labels,
		}),
		diis: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "diis_extrapolations_total",
			Help: "Iterations that used a DIIS extrapolated Fock matrix.", ConstLabels: labels,
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "energy_hartree",
			Help: "Total energy of the latest iteration.", ConstLabels: labels,
		}),
		delta: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "energy_delta_hartree",
			Help: "Energy change of the latest iteration.", ConstLabels: labels,
		}),
		densityRMS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "density_rms",
			Help: "RMS density change of the latest iteration.", ConstLabels: labels,
		}),
		converged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gohf", Subsystem: "scf", Name: "converged",
			Help: "1 when the run converged, 0 otherwise.", ConstLabels: labels,
		}),
	}
	p.registry.MustRegister(p.iterations, p.diis, p.energy, p.delta, p.densityRMS, p.converged)
	return p
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (p *PrometheusSink) Registry() *prometheus.Registry { return p.registry }

func (p *PrometheusSink) Iteration(it Iteration) {
	p.iterations.Inc()
	if it.DIIS {
		p.diis.Inc()
	}
	p.energy.Set(it.Energy)
	p.delta.Set(it.Delta)
	p.densityRMS.Set(it.DensityRMS)
}

func (p *PrometheusSink) Finish(s Summary) {
	if s.Converged {
		p.converged.Set(1)
	} else {
		p.converged.Set(0)
	}
}

// WriteTextfile dumps the registry in the text exposition format.
func (p *PrometheusSink) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

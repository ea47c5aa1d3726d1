// config.go --  This file is part of goHF project.
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

// Package config holds the SCF run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Reference names.
const (
	ROHF = "ROHF"
	RHF  = "RHF"
	UHF  = "UHF"
)

// G-build algorithms.
const (
	AlgorithmPK        = "PK"
	AlgorithmOutOfCore = "OUT_OF_CORE"
	AlgorithmDirect    = "DIRECT"
	AlgorithmDF        = "DF"
	AlgorithmCD        = "CD"
)

// Config is the immutable run configuration. The driver copies it by value.
type Config struct {
	// Reference is ROHF, RHF or UHF.
	Reference string `yaml:"reference"`
	// Algorithm selects the G-build strategy.
	Algorithm string `yaml:"algorithm"`

	EnergyConvergenceThreshold float64 `yaml:"energy_convergence_threshold"`
	MaxIterations              int     `yaml:"max_iterations"`

	DIISEnabled    bool `yaml:"diis_enabled"`
	DIISMinVectors int  `yaml:"diis_min_vectors"`
	DIISMaxVectors int  `yaml:"diis_max_vectors"`
	// DIISCadence extrapolates only on iterations divisible by it.
	DIISCadence int `yaml:"diis_cadence"`

	// MemoryBudgetBytes bounds the in-core PK and K arrays together.
	MemoryBudgetBytes int64 `yaml:"memory_budget_bytes"`

	Multiplicity int `yaml:"multiplicity"`
	// Threads is the number of PK sweep workers, 0 means GOMAXPROCS.
	Threads int `yaml:"threads"`

	// FrozenCore and FrozenVirtual are the numbers of lowest and highest
	// orbitals recorded as frozen with the final wavefunction, for correlated
	// methods downstream.
	FrozenCore    int `yaml:"frozen_core"`
	FrozenVirtual int `yaml:"frozen_virtual"`

	// RestartFile is a checkpoint to read the starting orbitals from.
	RestartFile string `yaml:"restart_file,omitempty"`
	PrintMOs    bool   `yaml:"print_mos"`
}

// DefaultConfig returns a Config with the usual ROHF settings.
func DefaultConfig() *Config {
	return &Config{
		Reference:                  ROHF,
		Algorithm:                  AlgorithmPK,
		EnergyConvergenceThreshold: 1e-6,
		MaxIterations:              50,
		DIISEnabled:                true,
		DIISMinVectors:             4,
		DIISMaxVectors:             10,
		DIISCadence:                1,
		MemoryBudgetBytes:          256 << 20,
		Multiplicity:               1,
		Threads:                    0,
	}
}

// Workers returns the PK sweep worker count.
func (c *Config) Workers() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.GOMAXPROCS(0)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Reference {
	case ROHF, RHF, UHF:
	default:
		return fmt.Errorf("%w: unknown reference %q", ErrInvalid, c.Reference)
	}
	switch c.Algorithm {
	case AlgorithmPK, AlgorithmOutOfCore, AlgorithmDirect, AlgorithmDF, AlgorithmCD:
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalid, c.Algorithm)
	}
	if c.EnergyConvergenceThreshold <= 0 {
		return fmt.Errorf("%w: energy_convergence_threshold must be positive", ErrInvalid)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrInvalid)
	}
	if c.DIISEnabled {
		if c.DIISMaxVectors < 1 {
			return fmt.Errorf("%w: diis_max_vectors must be at least 1", ErrInvalid)
		}
		if c.DIISMinVectors < 1 {
			return fmt.Errorf("%w: diis_min_vectors must be at least 1", ErrInvalid)
		}
		if c.DIISCadence < 1 {
			return fmt.Errorf("%w: diis_cadence must be at least 1", ErrInvalid)
		}
	}
	if c.MemoryBudgetBytes <= 0 {
		return fmt.Errorf("%w: memory_budget_bytes must be positive", ErrInvalid)
	}
	if c.Multiplicity < 1 {
		return fmt.Errorf("%w: multiplicity must be at least 1", ErrInvalid)
	}
	if c.Reference == RHF && c.Multiplicity != 1 {
		return fmt.Errorf("%w: RHF requires multiplicity 1, got %d", ErrInvalid, c.Multiplicity)
	}
	if c.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative", ErrInvalid)
	}
	if c.FrozenCore < 0 || c.FrozenVirtual < 0 {
		return fmt.Errorf("%w: frozen orbital counts must not be negative", ErrInvalid)
	}
	return nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package config

// Configuration loading and validation for airprobe

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kmoriarty/airprobe/internal/errors"
)

// StepOp is the operation kind of one scenario step.
type StepOp string

const (
	StepWrite StepOp = "write"
	StepRead  StepOp = "read"
)

// Step is one AP word access in a scenario's configuration-under-test
// list. Addr and Value accept YAML hex literals (0xE000EDF0).
type Step struct {
	Op    StepOp `yaml:"op"`
	Addr  uint32 `yaml:"addr"`
	Value uint32 `yaml:"value,omitempty"`
	Name  string `yaml:"name,omitempty"`
}

// Label returns a display name for the step.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Op == StepRead {
		return fmt.Sprintf("read 0x%08X", s.Addr)
	}
	return fmt.Sprintf("write 0x%08X=0x%08X", s.Addr, s.Value)
}

// ScenarioDef is a declarative reset-survival scenario: the ordered AP
// accesses to perform between baseline setup and the system reset. New
// scenarios are data, not code.
type ScenarioDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// ProbeConfig locates the probe and bounds each wire exchange.
type ProbeConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TimeoutMs int    `yaml:"timeout_ms"`
	SpeedKHz  int    `yaml:"speed_khz,omitempty"`
}

// Timeout returns the per-exchange bound as a duration.
func (p ProbeConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Config is the whole client configuration.
type Config struct {
	Probe     ProbeConfig   `yaml:"probe"`
	Scenarios []ScenarioDef `yaml:"scenarios"`
}

// Default returns the configuration used when no file is given: probe
// defaults plus the built-in scenario catalog.
func Default() *Config {
	return &Config{
		Probe: ProbeConfig{
			Port:      4146,
			TimeoutMs: 5000,
		},
		Scenarios: BuiltinScenarios(),
	}
}

// Load reads and validates a YAML config file. Built-in scenarios are
// appended after the file's own, so names in the file win lookups.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(err, path)
	}

	cfg := Default()
	cfg.Scenarios = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigError(err, path)
	}

	named := make(map[string]bool, len(cfg.Scenarios))
	for _, s := range cfg.Scenarios {
		named[s.Name] = true
	}
	for _, s := range BuiltinScenarios() {
		if !named[s.Name] {
			cfg.Scenarios = append(cfg.Scenarios, s)
		}
	}

	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Probe.Port < 0 || c.Probe.Port > 65535 {
		return fmt.Errorf("probe port %d out of range", c.Probe.Port)
	}
	if c.Probe.TimeoutMs < 0 {
		return fmt.Errorf("probe timeout_ms must not be negative")
	}

	seen := make(map[string]bool)
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
		for j, step := range s.Steps {
			switch step.Op {
			case StepWrite, StepRead:
			default:
				return fmt.Errorf("scenario %q step %d: op must be read or write, got %q", s.Name, j, step.Op)
			}
			if step.Addr == 0 {
				return fmt.Errorf("scenario %q step %d: addr is required", s.Name, j)
			}
		}
	}
	return nil
}

// FindScenario looks a scenario up by name.
func (c *Config) FindScenario(name string) (ScenarioDef, error) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return ScenarioDef{}, fmt.Errorf("unknown scenario %q", name)
}

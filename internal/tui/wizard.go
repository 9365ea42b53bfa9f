package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/kmoriarty/airprobe/internal/config"
)

// WizardChoice is what the interactive form collects.
type WizardChoice struct {
	Scenario string
	Host     string
	Port     int
	SpeedKHz int
}

func buildWizardForm(cfg *config.Config, host, port, speed, name *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(cfg.Scenarios))
	for _, def := range cfg.Scenarios {
		label := def.Name
		if def.Description != "" {
			label = fmt.Sprintf("%s — %s", def.Name, def.Description)
		}
		options = append(options, huh.NewOption(label, def.Name))
	}

	scenarioGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Scenario").
			Description("Reset-survival scenario to run against the target.").
			Key("scenario").
			Options(options...).
			Value(name),
	)

	probeGroup := huh.NewGroup(
		huh.NewInput().
			Title("Probe host").
			Description("Hostname or IP of the debug probe.").
			Key("host").
			Value(host),
		huh.NewInput().
			Title("Port").
			Description("TCP port the probe listens on (default 4146).").
			Key("port").
			Validate(validatePort).
			Value(port),
		huh.NewInput().
			Title("SWD speed (kHz)").
			Description("0 keeps the probe's current speed; otherwise one of 500/1000/2000/4000.").
			Key("speed").
			Validate(validateSpeed).
			Value(speed),
	)

	return huh.NewForm(scenarioGroup, probeGroup)
}

// RunWizard collects run parameters interactively, seeded from cfg.
func RunWizard(cfg *config.Config) (*WizardChoice, error) {
	host := cfg.Probe.Host
	port := strconv.Itoa(cfg.Probe.Port)
	speed := strconv.Itoa(cfg.Probe.SpeedKHz)
	name := ""
	if len(cfg.Scenarios) > 0 {
		name = cfg.Scenarios[0].Name
	}

	form := buildWizardForm(cfg, &host, &port, &speed, &name)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}

	portN, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return nil, fmt.Errorf("wizard: port %q: %w", port, err)
	}
	speedN, err := strconv.Atoi(strings.TrimSpace(speed))
	if err != nil {
		return nil, fmt.Errorf("wizard: speed %q: %w", speed, err)
	}

	return &WizardChoice{
		Scenario: name,
		Host:     strings.TrimSpace(host),
		Port:     portN,
		SpeedKHz: speedN,
	}, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("out of range")
	}
	return nil
}

func validateSpeed(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < 0 {
		return fmt.Errorf("must be non-negative")
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/config"
	"github.com/kmoriarty/airprobe/internal/logging"
	"github.com/kmoriarty/airprobe/internal/metrics"
	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/scenario"
	"github.com/kmoriarty/airprobe/internal/tui"
)

func newUICmd() *cobra.Command {
	var configFile string
	var logFile string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Pick and run a scenario interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			choice, err := tui.RunWizard(cfg)
			if err != nil {
				return err
			}

			def, err := cfg.FindScenario(choice.Scenario)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.LevelInfo, logFile)
			if err != nil {
				return err
			}
			defer logger.Close()

			params := scenario.Params{
				Host:     choice.Host,
				Port:     choice.Port,
				Logger:   logger,
				Sink:     metrics.NewSink(),
				SpeedKHz: choice.SpeedKHz,
			}
			client := probe.NewClient(cfg.Probe.Timeout())

			result, err := tui.RunInteractive(client, def, params)
			if result == nil {
				return err
			}
			if result.Outcome == scenario.OutcomeFailed {
				return fmt.Errorf("scenario %q FAILED: debug interface lost after reset", result.Scenario)
			}
			if result.Outcome == scenario.OutcomeAborted {
				return fmt.Errorf("scenario %q aborted during %s: %w", result.Scenario, result.FailedPhase, result.Err)
			}
			fmt.Fprintf(os.Stdout, "scenario %q passed\n", result.Scenario)
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append log output to file")
	return cmd
}

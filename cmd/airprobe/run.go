package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/config"
	uierrors "github.com/kmoriarty/airprobe/internal/errors"
	"github.com/kmoriarty/airprobe/internal/metrics"
	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/scenario"
	"github.com/kmoriarty/airprobe/internal/tui"
)

type runFlags struct {
	probeFlags
	metricsOut string
	copyReport bool
	live       bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a reset-survival scenario",
		Long: `Connect to the probe, bring the target's debug interface to a known
baseline, apply the named scenario's register writes, request a system
reset, and report whether the debug interface survived.

A scenario that never reaches the reset is reported ABORTED rather than
FAILED; only the post-reset probe decides survival.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args[0], flags)
		},
	}

	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := config.Default()
		if flags.configFile != "" {
			if loaded, err := config.Load(flags.configFile); err == nil {
				cfg = loaded
			}
		}
		return scenarioNames(cfg), cobra.ShellCompDirectiveNoFileComp
	}

	addProbeFlags(cmd, &flags.probeFlags)
	cmd.Flags().StringVar(&flags.metricsOut, "metrics-out", "", "Write per-step metrics to a CSV file")
	cmd.Flags().BoolVar(&flags.copyReport, "copy", false, "Copy the plain-text report to the clipboard")
	cmd.Flags().BoolVar(&flags.live, "live", false, "Show step progress in an interactive view")

	return cmd
}

func runScenario(name string, flags *runFlags) error {
	cfg, logger, err := setup(&flags.probeFlags)
	if err != nil {
		return err
	}
	defer logger.Close()

	def, err := cfg.FindScenario(name)
	if err != nil {
		return err
	}

	sink := metrics.NewSink()
	params := scenario.Params{
		Host:     cfg.Probe.Host,
		Port:     cfg.Probe.Port,
		Logger:   logger,
		Sink:     sink,
		SpeedKHz: cfg.Probe.SpeedKHz,
	}
	client := probe.NewClient(cfg.Probe.Timeout())

	var result *scenario.Result
	if flags.live {
		result, err = tui.RunInteractive(client, def, params)
	} else {
		result, err = scenario.Run(context.Background(), client, def, params)
	}

	if flags.metricsOut != "" {
		if werr := metrics.WriteCSV(flags.metricsOut, sink); werr != nil {
			logger.Error("write metrics: %v", werr)
		}
	}
	sum := sink.Summarize()
	logger.Verbose("%d steps: %d ok, %d failed; rtt min %.2fms avg %.2fms p95 %.2fms max %.2fms",
		sum.Count, sum.Successes, sum.Failures, sum.MinRTTMs, sum.AvgRTTMs, sum.P95RTTMs, sum.MaxRTTMs)

	if result == nil {
		return err
	}

	if !flags.live {
		fmt.Fprintln(os.Stdout, tui.RenderReport(result))
	}
	if flags.copyReport {
		if cerr := clipboard.WriteAll(tui.PlainReport(result)); cerr != nil {
			logger.Error("clipboard: %v", cerr)
		}
	}

	switch result.Outcome {
	case scenario.OutcomePassed:
		return nil
	case scenario.OutcomeFailed:
		return fmt.Errorf("scenario %q FAILED: debug interface lost after reset", result.Scenario)
	default:
		if result.FailedPhase == scenario.PhaseConnect {
			return uierrors.WrapNetworkError(result.Err, cfg.Probe.Host, cfg.Probe.Port)
		}
		return fmt.Errorf("scenario %q aborted during %s: %w", result.Scenario, result.FailedPhase, result.Err)
	}
}

func scenarioNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Scenarios))
	for _, d := range cfg.Scenarios {
		names = append(names, d.Name)
	}
	return names
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/config"
	"github.com/kmoriarty/airprobe/internal/dap"
	"github.com/kmoriarty/airprobe/internal/logging"
	"github.com/kmoriarty/airprobe/internal/probe"
	"github.com/kmoriarty/airprobe/internal/swd"
)

// probeFlags are the flags shared by every command that opens a probe
// session.
type probeFlags struct {
	host       string
	port       int
	timeoutMs  int
	speedKHz   int
	configFile string
	logFile    string
	verbose    bool
	debug      bool
}

func addProbeFlags(cmd *cobra.Command, flags *probeFlags) {
	cmd.Flags().StringVar(&flags.host, "host", "", "Probe hostname or IP (required unless set in config)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Probe TCP port (default 4146)")
	cmd.Flags().IntVar(&flags.timeoutMs, "timeout-ms", 0, "Per-operation timeout in milliseconds")
	cmd.Flags().IntVar(&flags.speedKHz, "speed-khz", 0, "SWD clock in kHz (0 keeps probe default)")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "YAML config file")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "Append log output to file")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Verbose output")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Debug output")
}

// setup loads config, applies flag overrides, and builds the logger.
func setup(flags *probeFlags) (*config.Config, *logging.Logger, error) {
	var cfg *config.Config
	var err error
	if flags.configFile != "" {
		cfg, err = config.Load(flags.configFile)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cfg = config.Default()
	}

	if flags.host != "" {
		cfg.Probe.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Probe.Port = flags.port
	}
	if flags.timeoutMs != 0 {
		cfg.Probe.TimeoutMs = flags.timeoutMs
	}
	if flags.speedKHz != 0 {
		cfg.Probe.SpeedKHz = flags.speedKHz
	}
	if cfg.Probe.Host == "" {
		return nil, nil, fmt.Errorf("no probe host: pass --host or set probe.host in config")
	}

	level := logging.LevelInfo
	if flags.verbose {
		level = logging.LevelVerbose
	}
	if flags.debug {
		level = logging.LevelDebug
	}
	logger, err := logging.New(level, flags.logFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// prepareTarget brings a fresh session to the point where memory
// access works: optional speed change, line reset, IDCODE check,
// sticky fault clear, debug power-up, CSW configuration.
func prepareTarget(ctx context.Context, client probe.Client, seq *dap.Sequencer, speedKHz int) error {
	if speedKHz > 0 {
		if err := client.SetSpeed(ctx, probe.SpeedFromKHz(speedKHz)); err != nil {
			return err
		}
	}
	if err := client.LineReset(ctx); err != nil {
		return err
	}
	if _, err := client.DPRead(ctx, swd.DPIDCode); err != nil {
		return err
	}
	if err := seq.ClearStickyFaults(ctx); err != nil {
		return err
	}
	if err := seq.PowerUpDebugDomain(ctx); err != nil {
		return err
	}
	return seq.ConfigureCSW(ctx)
}

// parseWord parses a register address or value in hex (0x-prefixed or
// bare) or decimal.
func parseWord(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	} else if strings.ContainsAny(s, "abcdefABCDEF") {
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q: %w", s, err)
	}
	return uint32(v), nil
}

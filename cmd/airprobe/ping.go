package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	uierrors "github.com/kmoriarty/airprobe/internal/errors"
	"github.com/kmoriarty/airprobe/internal/probe"
)

func newPingCmd() *cobra.Command {
	flags := &probeFlags{}
	var repeat int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check probe reachability and round-trip time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return pingProbe(flags, repeat)
		},
	}

	addProbeFlags(cmd, flags)
	cmd.Flags().IntVar(&repeat, "repeat", 3, "Number of pings to send")
	return cmd
}

func pingProbe(flags *probeFlags, repeat int) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := context.Background()
	client := probe.NewClient(cfg.Probe.Timeout())
	if err := client.Connect(ctx, cfg.Probe.Host, cfg.Probe.Port); err != nil {
		return uierrors.WrapNetworkError(err, cfg.Probe.Host, cfg.Probe.Port)
	}
	defer client.Disconnect(ctx)

	fmt.Fprintf(os.Stdout, "connected to %s:%d (API v%d)\n", cfg.Probe.Host, cfg.Probe.Port, probe.Version)

	for i := 0; i < repeat; i++ {
		start := time.Now()
		if err := client.Ping(ctx); err != nil {
			return uierrors.WrapProbeError(err, "ping")
		}
		fmt.Fprintf(os.Stdout, "ping %d: %.2fms\n", i+1, float64(time.Since(start).Microseconds())/1000.0)
	}
	return nil
}

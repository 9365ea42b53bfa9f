package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/dap"
	uierrors "github.com/kmoriarty/airprobe/internal/errors"
	"github.com/kmoriarty/airprobe/internal/probe"
)

func newWriteCmd() *cobra.Command {
	flags := &probeFlags{}

	cmd := &cobra.Command{
		Use:   "write <addr> <value> [value...]",
		Short: "Write target memory over the probe",
		Long: `Write one or more 32-bit words to the target's memory space starting
at the given address. Multiple values use a single bulk transfer with
auto-incrementing addressing.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			words := make([]uint32, 0, len(args)-1)
			for _, a := range args[1:] {
				w, err := parseWord(a)
				if err != nil {
					return err
				}
				words = append(words, w)
			}
			return writeMemory(flags, addr, words)
		},
	}

	addProbeFlags(cmd, flags)
	return cmd
}

func writeMemory(flags *probeFlags, addr uint32, words []uint32) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer logger.Close()

	if len(words) > probe.MaxBulkWords {
		return fmt.Errorf("%d words exceeds bulk limit %d", len(words), probe.MaxBulkWords)
	}

	ctx := context.Background()
	client := probe.NewClient(cfg.Probe.Timeout())
	if err := client.Connect(ctx, cfg.Probe.Host, cfg.Probe.Port); err != nil {
		return uierrors.WrapNetworkError(err, cfg.Probe.Host, cfg.Probe.Port)
	}
	defer client.Disconnect(ctx)

	seq := dap.NewSequencer(client)
	if err := prepareTarget(ctx, client, seq, cfg.Probe.SpeedKHz); err != nil {
		return uierrors.WrapProbeError(err, "prepare target")
	}

	if len(words) == 1 {
		if err := seq.WriteWord(ctx, addr, words[0]); err != nil {
			return uierrors.WrapProbeError(err, fmt.Sprintf("write 0x%08X", addr))
		}
	} else if err := seq.WriteBlock(ctx, addr, words); err != nil {
		return uierrors.WrapProbeError(err, fmt.Sprintf("bulk write 0x%08X", addr))
	}

	fmt.Fprintf(os.Stdout, "wrote %d word(s) at 0x%08X\n", len(words), addr)
	return nil
}

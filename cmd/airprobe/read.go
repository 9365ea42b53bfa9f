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

func newReadCmd() *cobra.Command {
	flags := &probeFlags{}
	var count int

	cmd := &cobra.Command{
		Use:   "read <addr>",
		Short: "Read target memory over the probe",
		Long: `Read one or more 32-bit words from the target's memory space. The
address may be hex (0xE000EDF0) or decimal. With --count the read uses
a single bulk transfer with auto-incrementing addressing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			return readMemory(flags, addr, count)
		},
	}

	addProbeFlags(cmd, flags)
	cmd.Flags().IntVar(&count, "count", 1, "Number of words to read (max 256)")
	return cmd
}

func readMemory(flags *probeFlags, addr uint32, count int) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer logger.Close()

	if count < 1 || count > probe.MaxBulkWords {
		return fmt.Errorf("count %d out of range [1,%d]", count, probe.MaxBulkWords)
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

	if count == 1 {
		value, err := seq.ReadWord(ctx, addr)
		if err != nil {
			return uierrors.WrapProbeError(err, fmt.Sprintf("read 0x%08X", addr))
		}
		fmt.Fprintf(os.Stdout, "0x%08X: 0x%08X\n", addr, value)
		return nil
	}

	words, err := seq.ReadBlock(ctx, addr, uint16(count))
	if err != nil {
		return uierrors.WrapProbeError(err, fmt.Sprintf("bulk read 0x%08X", addr))
	}
	for i, w := range words {
		fmt.Fprintf(os.Stdout, "0x%08X: 0x%08X\n", addr+uint32(4*i), w)
	}
	return nil
}

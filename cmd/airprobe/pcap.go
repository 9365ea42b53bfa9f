package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/probe"
)

func newPcapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pcap",
		Short: "Offline analysis of captured probe traffic",
	}
	cmd.AddCommand(newPcapExtractCmd())
	return cmd
}

func newPcapExtractCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "extract <capture.pcap>",
		Short: "Decode probe API conversations from a capture file",
		Long: `Reassemble the TCP conversations on the probe port and print each one
as a decoded transcript: handshake, then request/response pairs with
register selects, operands, and status codes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conversations, err := probe.ExtractConversations(args[0], port)
			if err != nil {
				return err
			}
			if len(conversations) == 0 {
				fmt.Fprintf(os.Stdout, "no probe conversations found on port %d\n", portOrDefault(port))
				return nil
			}
			for i, conv := range conversations {
				fmt.Fprintf(os.Stdout, "conversation %d: %s -> %s (%d events)\n", i+1, conv.Client, conv.Server, len(conv.Events))
				for _, ev := range conv.Events {
					fmt.Fprintf(os.Stdout, "  %s\n", probe.FormatEvent(ev))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Probe TCP port to filter on (default 4146)")
	return cmd
}

func portOrDefault(port int) int {
	if port == 0 {
		return probe.DefaultPort
	}
	return port
}

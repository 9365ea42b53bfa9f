package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmoriarty/airprobe/internal/config"
)

func newListCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			for _, def := range cfg.Scenarios {
				fmt.Fprintf(os.Stdout, "  %-18s %s\n", def.Name, def.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	return cmd
}

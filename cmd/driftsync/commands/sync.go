// ABOUTME: sync command refreshing capability metadata
// ABOUTME: Fetches server info for the current account and waits for the merge

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh capability metadata for the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !appManager.SyncCapabilities(cmd.Context()) {
				return fmt.Errorf("no current account")
			}

			caps := appManager.Capabilities()
			if caps.Version == "" {
				color.Yellow("Sync did not return server metadata; see log for details")
				return nil
			}

			fmt.Printf("Server version %s", caps.Version)
			if caps.ProEdition() {
				color.New(color.FgCyan).Print("  [pro]")
			}
			fmt.Println()
			if len(caps.Features) > 0 {
				fmt.Printf("Features: %s\n", caps.FeatureString())
			}
			return nil
		},
	}
}

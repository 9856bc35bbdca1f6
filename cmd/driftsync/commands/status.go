// ABOUTME: status command showing the current account
// ABOUTME: Prints identity, capabilities and storage quota from the last sync

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current account, server capabilities and quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, ok := appManager.CurrentAccount()
			if !ok {
				fmt.Println("No accounts. Run 'driftsync login' to add one.")
				return nil
			}

			fmt.Printf("Account:  %s at %s\n", current.Username, current.ServerURL)
			if current.AccountInfo.Name != "" {
				fmt.Printf("Name:     %s\n", current.AccountInfo.Name)
			}
			if !current.Valid() {
				color.Yellow("Logged out; run 'driftsync use %s %s' to re-authenticate",
					current.ServerURL, current.Username)
			}

			caps := current.ServerInfo
			if caps.Version != "" {
				edition := ""
				if caps.ProEdition() {
					edition = " (pro)"
				}
				fmt.Printf("Server:   %s%s\n", caps.Version, edition)
			}
			if caps.CustomBrand != "" {
				fmt.Printf("Brand:    %s\n", caps.CustomBrand)
			}

			if current.AccountInfo.TotalStorage > 0 {
				fmt.Printf("Storage:  %s / %s\n",
					formatBytes(current.AccountInfo.UsedStorage),
					formatBytes(current.AccountInfo.TotalStorage))
			}
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

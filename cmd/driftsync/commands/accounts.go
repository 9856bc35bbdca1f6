// ABOUTME: accounts command listing stored accounts
// ABOUTME: Prints the registry order with the current account marked

package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List stored accounts in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := appManager.Accounts()
			if len(accounts) == 0 {
				fmt.Println("No accounts. Run 'driftsync login' to add one.")
				return nil
			}

			gray := color.New(color.FgHiBlack)
			for i, a := range accounts {
				marker := "  "
				if i == 0 {
					marker = color.GreenString("* ")
				}

				state := color.GreenString("authenticated")
				if !a.Valid() {
					state = color.YellowString("logged out")
				}

				fmt.Printf("%s%s at %s  %s", marker, a.Username, a.ServerURL, state)
				if a.LastVisited > 0 {
					visited := time.UnixMilli(a.LastVisited).Format("2006-01-02 15:04")
					gray.Printf("  last used %s", visited)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

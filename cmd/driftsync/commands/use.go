// ABOUTME: use command switching the current account
// ABOUTME: Runs the login arbiter; re-authenticates interactively when the token is unusable

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/driftsync/driftsync/internal/account"
)

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <server-url> <username>",
		Short: "Switch the current account, re-authenticating if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := account.Identity{ServerURL: args[0], Username: args[1]}

			activated, err := appManager.ValidateAndUse(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !activated {
				fmt.Println("Not activated.")
				return nil
			}

			color.Green("Now using %s at %s", id.Username, id.ServerURL)
			return nil
		},
	}
}

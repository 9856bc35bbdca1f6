// ABOUTME: logout command removing a stored account
// ABOUTME: Deletes the account row and its capability metadata

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftsync/driftsync/internal/account"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <server-url> <username>",
		Short: "Remove a stored account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := account.Identity{ServerURL: args[0], Username: args[1]}
			appManager.RemoveAccount(cmd.Context(), id)
			fmt.Printf("Removed %s at %s\n", id.Username, id.ServerURL)
			return nil
		},
	}
}

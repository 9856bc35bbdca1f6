// ABOUTME: login command adding or re-authenticating an account
// ABOUTME: Runs the terminal password flow and saves the account as current

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/login"
)

func loginCmd() *cobra.Command {
	var noAutoLogin bool

	cmd := &cobra.Command{
		Use:   "login <server-url> <username>",
		Short: "Authenticate against a server and store the account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := account.Account{
				ServerURL: args[0],
				Username:  args[1],
				AuthMode:  account.AuthPassword,
				AutoLogin: !noAutoLogin,
			}

			flow := login.NewTerminalPasswordFlow(newAPIClient())
			token, ok, err := flow.Run(cmd.Context(), seed)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}

			seed.Token = token
			appManager.SaveAccount(cmd.Context(), seed)

			color.Green("Logged in as %s at %s", seed.Username, seed.ServerURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAutoLogin, "no-auto-login", false, "require re-authentication each session")
	return cmd
}

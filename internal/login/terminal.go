// ABOUTME: Terminal-based password flow reading the secret without echo
// ABOUTME: Exchanges the password for an API token via an injected Authenticator

package login

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/driftsync/driftsync/internal/account"
)

// Authenticator exchanges a password for an API token. The network call
// behind it is provided by the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, acct account.Account, password string) (string, error)
}

// TerminalPasswordFlow implements CredentialFlow on a terminal: it prompts
// for the account's password without echo and trades it for a token.
// An empty password is treated as cancellation.
type TerminalPasswordFlow struct {
	auth Authenticator
	out  io.Writer

	// readSecret is swapped out in tests; the default reads from the
	// controlling terminal via term.ReadPassword.
	readSecret func() (string, error)
}

// NewTerminalPasswordFlow creates a flow writing prompts to stdout.
func NewTerminalPasswordFlow(auth Authenticator) *TerminalPasswordFlow {
	f := &TerminalPasswordFlow{
		auth: auth,
		out:  os.Stdout,
	}
	f.readSecret = f.readFromTerminal
	return f
}

// Run prompts for the password seeded with the account's stored identity.
func (f *TerminalPasswordFlow) Run(ctx context.Context, seed account.Account) (string, bool, error) {
	fmt.Fprintf(f.out, "Password for %s at %s: ", seed.Username, seed.ServerURL)

	password, err := f.readSecret()
	if err != nil {
		return "", false, fmt.Errorf("reading password: %w", err)
	}
	if password == "" {
		return "", false, nil
	}

	token, err := f.auth.Authenticate(ctx, seed, password)
	if err != nil {
		return "", false, fmt.Errorf("authenticating %s: %w", seed.Username, err)
	}
	return token, true, nil
}

func (f *TerminalPasswordFlow) readFromTerminal() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(f.out)
	return string(b), err
}

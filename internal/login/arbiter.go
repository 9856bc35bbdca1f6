// ABOUTME: Login arbiter deciding between reuse, forced re-auth and interactive relogin
// ABOUTME: Dispatches interactive credential flows keyed by the account's auth mode

package login

import (
	"context"
	"errors"
	"log/slog"

	"github.com/driftsync/driftsync/internal/account"
)

// ErrNoFlow is returned when an account needs an interactive login but no
// flow is configured for its auth mode.
var ErrNoFlow = errors.New("no interactive login flow configured")

// CredentialFlow is an interactive login collaborator (password prompt,
// browser-assisted Shibboleth, platform SSO). Run blocks until the user
// completes or cancels the flow; ok=false means cancelled, which is an
// outcome, not an error.
type CredentialFlow interface {
	Run(ctx context.Context, seed account.Account) (token string, ok bool, err error)
}

// Flows holds the interactive flow per auth mode. Kerberos is optional: on
// platforms without native single sign-on it stays nil and those accounts
// fall back to the password flow.
type Flows struct {
	Password   CredentialFlow
	Shibboleth CredentialFlow
	Kerberos   CredentialFlow
}

// Decision is the arbiter's verdict for activating an account.
type Decision int

const (
	// DecisionActivate: the stored token is usable; make the account
	// current and kick off a capability sync.
	DecisionActivate Decision = iota

	// DecisionForceClearThenRelogin: the account has a token but auto-login
	// is disabled and it was last visited before this process started; the
	// token must be wiped before an interactive relogin.
	DecisionForceClearThenRelogin

	// DecisionRelogin: no token; run the interactive flow for the account's
	// auth mode.
	DecisionRelogin
)

func (d Decision) String() string {
	switch d {
	case DecisionForceClearThenRelogin:
		return "force-clear-then-relogin"
	case DecisionRelogin:
		return "relogin"
	default:
		return "activate"
	}
}

// Arbiter evaluates, per account, whether stored credentials can be reused
// or an interactive flow is required.
type Arbiter struct {
	flows     Flows
	startupMs int64 // process start time, ms since epoch
	logger    *slog.Logger
}

// NewArbiter creates an arbiter. startupMs is the process start timestamp;
// accounts with auto-login disabled that were last visited before it must
// re-authenticate.
func NewArbiter(flows Flows, startupMs int64, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{
		flows:     flows,
		startupMs: startupMs,
		logger:    logger.With("component", "login"),
	}
}

// Decide returns the verdict for activating the account.
func (a *Arbiter) Decide(acct account.Account) Decision {
	switch {
	case acct.Valid() && !acct.AutoLogin && acct.LastVisited < a.startupMs:
		return DecisionForceClearThenRelogin
	case !acct.Valid():
		return DecisionRelogin
	default:
		return DecisionActivate
	}
}

// Relogin runs the interactive flow for the account's auth mode, seeded
// with its stored identity. Returns the fresh token, or ok=false when the
// user cancelled.
func (a *Arbiter) Relogin(ctx context.Context, acct account.Account) (string, bool, error) {
	flow := a.flowFor(acct.AuthMode)
	if flow == nil {
		return "", false, ErrNoFlow
	}

	a.logger.Info("interactive login",
		"url", acct.ServerURL,
		"username", acct.Username,
		"mode", acct.AuthMode.String(),
	)

	token, ok, err := flow.Run(ctx, acct)
	if err != nil {
		return "", false, err
	}
	if !ok {
		a.logger.Info("login cancelled", "username", acct.Username)
		return "", false, nil
	}
	return token, true, nil
}

func (a *Arbiter) flowFor(mode account.AuthMode) CredentialFlow {
	switch mode {
	case account.AuthShibboleth:
		return a.flows.Shibboleth
	case account.AuthKerberos:
		if a.flows.Kerberos != nil {
			return a.flows.Kerberos
		}
		// No native SSO on this platform; the password dialog takes over.
		return a.flows.Password
	default:
		return a.flows.Password
	}
}

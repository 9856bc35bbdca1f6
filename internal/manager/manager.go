// ABOUTME: AccountManager facade composing store, registry, capability sync and login arbiter
// ABOUTME: The only surface UI/RPC callers interact with

package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/capsync"
	"github.com/driftsync/driftsync/internal/events"
	"github.com/driftsync/driftsync/internal/login"
	"github.com/driftsync/driftsync/internal/registry"
	"github.com/driftsync/driftsync/internal/store"
)

// ErrUnknownAccount is returned when an operation names an identity the
// registry does not hold.
var ErrUnknownAccount = errors.New("unknown account")

// Settings provides client-level settings to the manager.
type Settings interface {
	ComputerName() string
}

// Options wires the manager's collaborators. Everything the original
// design reached through a GUI singleton arrives here explicitly.
type Options struct {
	Store        store.AccountStore
	Capabilities capsync.CapabilityClient
	Notifier     capsync.DaemonNotifier // may be nil when no daemon is attached
	Settings     Settings
	Flows        login.Flows

	// StartupTime is the process start in ms since epoch; zero means now.
	// Accounts with auto-login disabled that were last visited before it
	// must re-authenticate.
	StartupTime int64

	// OnNewAccountNeeded is invoked when no stored account can serve as
	// current and an interactive new-account flow must take over. May be
	// nil.
	OnNewAccountNeeded func(ctx context.Context)

	Logger *slog.Logger
}

// Manager is the account-management facade.
type Manager struct {
	store    store.AccountStore
	registry *registry.Registry
	events   *events.Broadcaster
	syncer   *capsync.Syncer
	arbiter  *login.Arbiter
	notifier capsync.DaemonNotifier
	settings Settings

	onNewAccountNeeded func(ctx context.Context)
	logger             *slog.Logger
	nowMs              func() int64
}

// New creates a manager from its collaborators. The store must already be
// open; opening it is the caller's start-up step so that an unopenable
// store aborts the process before anything else spins up.
func New(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("manager: store is required")
	}
	if opts.Capabilities == nil {
		return nil, fmt.Errorf("manager: capability client is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	startup := opts.StartupTime
	if startup == 0 {
		startup = time.Now().UnixMilli()
	}

	broadcaster := events.NewBroadcaster(logger)
	reg := registry.New(broadcaster, logger)

	m := &Manager{
		store:              opts.Store,
		registry:           reg,
		events:             broadcaster,
		syncer:             capsync.New(opts.Capabilities, opts.Store, reg, opts.Notifier, logger),
		arbiter:            login.NewArbiter(opts.Flows, startup, logger),
		notifier:           opts.Notifier,
		settings:           opts.Settings,
		onNewAccountNeeded: opts.OnNewAccountNeeded,
		logger:             logger.With("component", "accounts"),
		nowMs:              func() int64 { return time.Now().UnixMilli() },
	}
	return m, nil
}

// Start loads the persisted accounts into the registry. A load failure is
// fatal to start-up.
func (m *Manager) Start(ctx context.Context) error {
	accounts, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	m.registry.Load(accounts)
	m.logger.Info("account manager started", "accounts", len(accounts))
	return nil
}

// Close waits out in-flight capability syncs and releases resources.
func (m *Manager) Close() error {
	m.syncer.Wait()
	m.events.Close()
	return m.store.Close()
}

// Accounts returns a read-only snapshot of the ordered account list.
func (m *Manager) Accounts() []account.Account {
	return m.registry.Accounts()
}

// CurrentAccount returns the current (front) account, if any.
func (m *Manager) CurrentAccount() (account.Account, bool) {
	return m.registry.Current()
}

// Capabilities returns the current account's capability metadata.
func (m *Manager) Capabilities() account.ServerInfo {
	return m.registry.Capabilities()
}

// AccountByHostAndUsername looks an account up by server host and username.
func (m *Manager) AccountByHostAndUsername(host, username string) (account.Account, bool) {
	return m.registry.FindByHostAndUsername(host, username)
}

// AccountBySignature looks an account up by its stable signature string.
func (m *Manager) AccountBySignature(sig string) (account.Account, bool) {
	return m.registry.FindBySignature(sig)
}

// Subscribe registers for account change events. The subscription is
// cleaned up when ctx is cancelled.
func (m *Manager) Subscribe(ctx context.Context) (<-chan events.Event, string) {
	return m.events.Subscribe(ctx)
}

// SaveAccount records the account as most recently used: its lastVisited
// is bumped, the registry re-orders (a valid saved account becomes
// current), the row is persisted, the daemon learns the client name and a
// capability sync is kicked off for the resulting current account.
// Persistence failures are logged; in-memory state stays authoritative.
func (m *Manager) SaveAccount(ctx context.Context, acct account.Account) {
	acct.LastVisited = m.nowMs()
	m.registry.Upsert(acct)

	if err := m.store.UpsertAccount(ctx, acct); err != nil {
		m.logger.Warn("persisting account failed", "username", acct.Username, "error", err)
	}

	if m.notifier != nil && m.settings != nil {
		if err := m.notifier.SetClientName(ctx, m.settings.ComputerName()); err != nil {
			m.logger.Warn("setting client name failed", "error", err)
		}
	}

	if current, ok := m.registry.Current(); ok {
		m.syncer.Refresh(ctx, current)
	}
}

// SyncCapabilities triggers a capability fetch for the current account and
// waits for it to complete. Returns false when there is no current account.
func (m *Manager) SyncCapabilities(ctx context.Context) bool {
	current, ok := m.registry.Current()
	if !ok {
		return false
	}
	m.syncer.Refresh(ctx, current)
	m.syncer.Wait()
	return true
}

// RemoveAccount deletes the account everywhere (logout). If it was the
// current account, the next-most-recent account is activated through the
// arbiter; with no accounts left the new-account flow is signalled.
func (m *Manager) RemoveAccount(ctx context.Context, id account.Identity) {
	if err := m.store.DeleteAccount(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Warn("deleting account failed", "username", id.Username, "error", err)
	}

	removed, wasCurrent := m.registry.Remove(id)
	if !removed {
		return
	}

	m.logger.Info("removed account", "url", id.ServerURL, "username", id.Username)

	if !wasCurrent {
		return
	}

	if next, ok := m.registry.Current(); ok {
		if _, err := m.ValidateAndUse(ctx, next.Identity()); err != nil {
			m.logger.Warn("activating replacement account failed",
				"username", next.Username, "error", err)
		}
	} else if m.onNewAccountNeeded != nil {
		m.onNewAccountNeeded(ctx)
	}
}

// ValidateAndUse activates the account with the given identity, running the
// login arbiter first: a usable token activates directly; a stale token
// with auto-login disabled is wiped and the interactive flow runs; a
// missing token goes straight to the interactive flow. Returns whether the
// account ended up activated; a cancelled login is a false outcome, not an
// error.
func (m *Manager) ValidateAndUse(ctx context.Context, id account.Identity) (bool, error) {
	acct, ok := m.registry.Find(id)
	if !ok {
		return false, ErrUnknownAccount
	}

	decision := m.arbiter.Decide(acct)
	m.logger.Debug("login decision",
		"username", acct.Username, "decision", decision.String())

	switch decision {
	case login.DecisionActivate:
		m.activate(ctx, acct)
		return true, nil

	case login.DecisionForceClearThenRelogin:
		m.clearToken(ctx, acct.Identity())
		acct.Token = ""
		return m.relogin(ctx, acct)

	default: // login.DecisionRelogin
		return m.relogin(ctx, acct)
	}
}

// InvalidateCurrentLogin wipes the current account's token and re-enters
// the interactive login for it. Used when the daemon reports an auth
// failure mid-session. A tokenless current account is a no-op: no store
// write, no notification.
func (m *Manager) InvalidateCurrentLogin(ctx context.Context) error {
	current, ok := m.registry.Current()
	if !ok {
		return nil
	}
	if !current.Valid() {
		return nil
	}

	m.clearToken(ctx, current.Identity())
	current.Token = ""

	_, err := m.relogin(ctx, current)
	return err
}

// activate makes a known account current: only its lastVisited changes, so
// the store write is a touch rather than a full row rewrite. A capability
// sync follows, as after any activation.
func (m *Manager) activate(ctx context.Context, acct account.Account) {
	acct.LastVisited = m.nowMs()
	m.registry.Upsert(acct)

	if err := m.store.TouchLastVisited(ctx, acct.Identity(), acct.LastVisited); err != nil {
		m.logger.Warn("updating last visited failed", "username", acct.Username, "error", err)
	}

	m.syncer.Refresh(ctx, acct)
}

// relogin runs the interactive flow and, on success, saves and activates
// the account with its fresh token.
func (m *Manager) relogin(ctx context.Context, acct account.Account) (bool, error) {
	token, ok, err := m.arbiter.Relogin(ctx, acct)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	acct.Token = token
	m.SaveAccount(ctx, acct)
	return true, nil
}

// clearToken wipes the token in both store and registry. The registry
// notifies subscribers; the store failure is non-fatal as usual.
func (m *Manager) clearToken(ctx context.Context, id account.Identity) {
	if err := m.store.ClearToken(ctx, id); err != nil {
		m.logger.Warn("clearing token failed", "username", id.Username, "error", err)
	}
	m.registry.ClearToken(id)
}

// ABOUTME: Tests for the AccountManager facade
// ABOUTME: Covers the login scenarios, account promotion, invalidation and persistence round-trips

package manager

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/login"
	"github.com/driftsync/driftsync/internal/store"
)

const startupMs = int64(1_700_000_000_000)

type fakeCapabilities struct{}

func (fakeCapabilities) FetchCapabilities(ctx context.Context, acct account.Account) (account.ServerInfo, account.AccountInfo, error) {
	return account.ServerInfo{Version: "12.0.0"}, account.AccountInfo{Name: acct.Username}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeNotifier) SwitchAccount(ctx context.Context, acct account.Account, pro bool) error {
	return nil
}

func (f *fakeNotifier) SetClientName(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return nil
}

type staticSettings string

func (s staticSettings) ComputerName() string { return string(s) }

type scriptedFlow struct {
	token string
	ok    bool
	runs  int
}

func (f *scriptedFlow) Run(ctx context.Context, seed account.Account) (string, bool, error) {
	f.runs++
	return f.token, f.ok, nil
}

type fixture struct {
	manager   *Manager
	store     *store.SQLiteStore
	flow      *scriptedFlow
	notifier  *fakeNotifier
	newNeeded int
	clock     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)

	fx := &fixture{store: st, flow: &scriptedFlow{}, notifier: &fakeNotifier{}, clock: startupMs}

	m, err := New(Options{
		Store:        st,
		Capabilities: fakeCapabilities{},
		Notifier:     fx.notifier,
		Settings:     staticSettings("test-machine"),
		Flows:        login.Flows{Password: fx.flow},
		StartupTime:  startupMs,
		OnNewAccountNeeded: func(ctx context.Context) {
			fx.newNeeded++
		},
	})
	require.NoError(t, err)

	// Deterministic, strictly increasing timestamps.
	m.nowMs = func() int64 {
		fx.clock++
		return fx.clock
	}

	fx.manager = m
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Start(context.Background()))
	return fx
}

func newAccount(url, user, token string) account.Account {
	return account.Account{ServerURL: url, Username: user, Token: token, AutoLogin: true}
}

func TestScenario_SaveSwitchRemove(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	// Empty store: no current account.
	assert.Empty(t, m.Accounts())
	_, ok := m.CurrentAccount()
	assert.False(t, ok)

	// First login.
	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	accounts := m.Accounts()
	require.Len(t, accounts, 1)
	current, ok := m.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, "t1", current.Token)

	// Second login becomes current (more recent).
	m.SaveAccount(ctx, newAccount("https://s2", "bob", "t2"))
	current, _ = m.CurrentAccount()
	assert.Equal(t, "bob", current.Username)

	// Removing bob promotes alice again.
	m.RemoveAccount(ctx, account.Identity{ServerURL: "https://s2", Username: "bob"})
	current, ok = m.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, 0, fx.newNeeded)
}

func TestRemoveLastAccount_SignalsNewAccountFlow(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	m.RemoveAccount(ctx, account.Identity{ServerURL: "https://s1", Username: "alice"})

	assert.Empty(t, m.Accounts())
	assert.Equal(t, 1, fx.newNeeded)
}

func TestRemoveNonCurrentAccount_NoPromotion(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	m.SaveAccount(ctx, newAccount("https://s2", "bob", "t2"))

	m.RemoveAccount(ctx, account.Identity{ServerURL: "https://s1", Username: "alice"})

	current, ok := m.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "bob", current.Username)
	assert.Equal(t, 0, fx.newNeeded)
}

func TestValidateAndUse_FreshTokenActivates(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	m.SaveAccount(ctx, newAccount("https://s2", "bob", "t2"))

	activated, err := m.ValidateAndUse(ctx, account.Identity{ServerURL: "https://s1", Username: "alice"})
	require.NoError(t, err)
	assert.True(t, activated)

	current, _ := m.CurrentAccount()
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, 0, fx.flow.runs, "no interactive flow for a fresh token")

	// The bumped lastVisited is persisted, so the switch survives a restart.
	persisted, err := fx.store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", persisted[0].Username)
}

func TestValidateAndUse_StaleAutoLoginDisabled(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	// Seed an account last visited before process start, auto-login off.
	stale := account.Account{
		ServerURL:   "https://s1",
		Username:    "alice",
		Token:       "old-token",
		LastVisited: startupMs - 10_000,
		AutoLogin:   false,
	}
	require.NoError(t, fx.store.UpsertAccount(ctx, stale))
	require.NoError(t, m.Start(ctx))

	// The user cancels the forced relogin.
	fx.flow.ok = false

	activated, err := m.ValidateAndUse(ctx, stale.Identity())
	require.NoError(t, err)
	assert.False(t, activated)
	assert.Equal(t, 1, fx.flow.runs, "forced re-auth must run the interactive flow")

	// Token wiped in memory and on disk.
	got, ok := m.AccountByHostAndUsername("s1", "alice")
	require.True(t, ok)
	assert.False(t, got.Valid())

	persisted, err := fx.store.LoadAll(ctx)
	require.NoError(t, err)
	assert.False(t, persisted[0].Valid())
}

func TestValidateAndUse_ReloginSuccess(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	unauthenticated := account.Account{
		ServerURL: "https://s1", Username: "alice", AutoLogin: true,
	}
	require.NoError(t, fx.store.UpsertAccount(ctx, unauthenticated))
	require.NoError(t, m.Start(ctx))

	fx.flow.token = "fresh-token"
	fx.flow.ok = true

	activated, err := m.ValidateAndUse(ctx, unauthenticated.Identity())
	require.NoError(t, err)
	assert.True(t, activated)

	current, ok := m.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "fresh-token", current.Token)
}

func TestValidateAndUse_UnknownAccount(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.manager.ValidateAndUse(context.Background(),
		account.Identity{ServerURL: "https://nowhere", Username: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestInvalidateCurrentLogin(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))

	// The user cancels the relogin prompt: account stays, unauthenticated.
	fx.flow.ok = false
	require.NoError(t, m.InvalidateCurrentLogin(ctx))
	assert.Equal(t, 1, fx.flow.runs)

	accounts := m.Accounts()
	require.Len(t, accounts, 1)
	assert.False(t, accounts[0].Valid())

	persisted, err := fx.store.LoadAll(ctx)
	require.NoError(t, err)
	assert.False(t, persisted[0].Valid())
}

func TestInvalidateCurrentLogin_NoOpWhenTokenless(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	fx.flow.ok = false
	require.NoError(t, m.InvalidateCurrentLogin(ctx))
	require.Equal(t, 1, fx.flow.runs)

	// Second invalidation: token already empty, nothing happens.
	require.NoError(t, m.InvalidateCurrentLogin(ctx))
	assert.Equal(t, 1, fx.flow.runs, "no relogin for an already-tokenless account")
}

func TestInvalidateCurrentLogin_EmptyRegistry(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.manager.InvalidateCurrentLogin(context.Background()))
	assert.Equal(t, 0, fx.flow.runs)
}

func TestSyncCapabilities(t *testing.T) {
	fx := newFixture(t)
	m := fx.manager
	ctx := context.Background()

	assert.False(t, m.SyncCapabilities(ctx), "no current account to sync")

	m.SaveAccount(ctx, newAccount("https://s1", "alice", "t1"))
	require.True(t, m.SyncCapabilities(ctx))

	assert.Equal(t, "12.0.0", m.Capabilities().Version)
}

func TestSaveAccount_PersistsAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "accounts.db")
	ctx := context.Background()

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)

	m, err := New(Options{
		Store:        st,
		Capabilities: fakeCapabilities{},
		StartupTime:  startupMs,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start(ctx))

	saved := newAccount("https://s1", "alice", "t1")
	m.SaveAccount(ctx, saved)
	require.NoError(t, m.Close())

	// Fresh process: reopen and reload.
	st, err = store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	m, err = New(Options{
		Store:        st,
		Capabilities: fakeCapabilities{},
		StartupTime:  startupMs,
	})
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Start(ctx))

	current, ok := m.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, "t1", current.Token)
	assert.GreaterOrEqual(t, current.LastVisited, saved.LastVisited)
}

func TestSaveAccount_PropagatesClientName(t *testing.T) {
	fx := newFixture(t)

	fx.manager.SaveAccount(context.Background(), newAccount("https://s1", "alice", "t1"))

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	require.NotEmpty(t, fx.notifier.names)
	assert.Equal(t, "test-machine", fx.notifier.names[0])
}

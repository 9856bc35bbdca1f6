// ABOUTME: Asynchronous per-account capability fetch and merge
// ABOUTME: Persists server metadata, updates the registry and notifies the sync daemon

package capsync

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/registry"
	"github.com/driftsync/driftsync/internal/store"
)

// CapabilityClient fetches a server's capability metadata for an account.
// The network transport behind it is provided by the caller.
type CapabilityClient interface {
	FetchCapabilities(ctx context.Context, acct account.Account) (account.ServerInfo, account.AccountInfo, error)
}

// DaemonNotifier pushes account-level settings to the sync daemon.
type DaemonNotifier interface {
	SwitchAccount(ctx context.Context, acct account.Account, proEdition bool) error
	SetClientName(ctx context.Context, name string) error
}

// Syncer issues asynchronous capability-fetch requests and merges results
// back into the store and registry. A fetch failure is logged and leaves all
// state unchanged; it never blocks or fails a login.
type Syncer struct {
	client   CapabilityClient
	store    store.AccountStore
	registry *registry.Registry
	notifier DaemonNotifier
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a Syncer. notifier may be nil when no daemon is attached.
func New(client CapabilityClient, st store.AccountStore, reg *registry.Registry, notifier DaemonNotifier, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		client:   client,
		store:    st,
		registry: reg,
		notifier: notifier,
		logger:   logger.With("component", "capsync"),
	}
}

// Refresh starts one asynchronous capability fetch for the account and
// returns immediately. Concurrent refreshes for the same account are
// allowed; the last completion wins. A completion for an account that has
// been removed in the meantime is discarded.
func (s *Syncer) Refresh(ctx context.Context, acct account.Account) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresh(ctx, acct)
	}()
}

// Wait blocks until all in-flight refreshes have completed. Used on
// shutdown and in tests.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) refresh(ctx context.Context, acct account.Account) {
	info, acctInfo, err := s.client.FetchCapabilities(ctx, acct)
	if err != nil {
		s.logger.Warn("capability sync failed",
			"url", acct.ServerURL,
			"username", acct.Username,
			"error", err,
		)
		return
	}

	id := acct.Identity()

	// The account may have been removed or replaced while the request was
	// in flight; a stale completion is simply dropped.
	prev, ok := s.registry.Find(id)
	if !ok {
		s.logger.Debug("discarding capability result for removed account",
			"url", id.ServerURL, "username", id.Username)
		return
	}

	s.persistServerInfo(ctx, id, info)
	s.persistAccountInfo(ctx, id, acctInfo)

	if s.notifier != nil {
		if err := s.notifier.SwitchAccount(ctx, acct, info.ProEdition()); err != nil {
			s.logger.Warn("daemon account switch failed", "error", err)
		}
	}

	// Only a real metadata change reaches subscribers, so a periodic resync
	// that returns identical data does not trigger a refresh storm.
	if !prev.ServerInfo.Equal(info) {
		s.registry.SetServerInfo(id, info)
	}
	s.registry.SetAccountInfo(id, acctInfo)

	s.logger.Debug("capability sync complete",
		"url", id.ServerURL,
		"username", id.Username,
		"version", info.Version,
		"pro", info.ProEdition(),
	)
}

// persistServerInfo writes the capability fields as typed key/value rows.
// Write failures are logged and non-fatal: the in-memory registry stays
// authoritative for the running session.
func (s *Syncer) persistServerInfo(ctx context.Context, id account.Identity, info account.ServerInfo) {
	fields := []struct{ key, value string }{
		{store.KeyVersion, info.Version},
		{store.KeyFeatures, info.FeatureString()},
		{store.KeyCustomBrand, info.CustomBrand},
		{store.KeyCustomLogo, info.CustomLogo},
	}
	for _, f := range fields {
		if err := s.store.SetServerInfoField(ctx, id, f.key, f.value); err != nil {
			s.logger.Warn("persisting server info failed", "key", f.key, "error", err)
		}
	}
}

func (s *Syncer) persistAccountInfo(ctx context.Context, id account.Identity, info account.AccountInfo) {
	fields := []struct{ key, value string }{
		{store.KeyTotalStorage, strconv.FormatInt(info.TotalStorage, 10)},
		{store.KeyUsedStorage, strconv.FormatInt(info.UsedStorage, 10)},
		{store.KeyNickname, info.Name},
	}
	for _, f := range fields {
		if err := s.store.SetServerInfoField(ctx, id, f.key, f.value); err != nil {
			s.logger.Warn("persisting account info failed", "key", f.key, "error", err)
		}
	}
}

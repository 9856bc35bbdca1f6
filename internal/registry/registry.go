// ABOUTME: In-memory ordered account registry mirroring the SQLite store
// ABOUTME: Thread-safe mutation, derived capability cache and change notification

package registry

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/events"
)

// Registry holds the ordered sequence of accounts. The first entry is the
// current account. All mutations serialize through a single mutex; no I/O
// happens while it is held. The derived capability cache has its own lock so
// cache reads never wait out a collection mutation.
type Registry struct {
	mu       sync.Mutex
	accounts []account.Account

	cacheMu sync.Mutex
	caps    *account.ServerInfo // current account's capabilities, nil when stale

	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

// New creates an empty registry publishing to the given broadcaster.
func New(broadcaster *events.Broadcaster, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		broadcaster: broadcaster,
		logger:      logger.With("component", "registry"),
	}
}

// Load replaces the collection with accounts loaded from the store at
// start-up. No change event is published; subscribers attach after Start.
func (r *Registry) Load(accounts []account.Account) {
	r.mu.Lock()
	r.accounts = slices.Clone(accounts)
	r.sortLocked()
	r.mu.Unlock()

	r.invalidateCache()
}

// Upsert replaces the entry with the account's identity, or inserts the
// account, then re-sorts by the ordering invariant and notifies subscribers.
func (r *Registry) Upsert(acct account.Account) {
	r.mu.Lock()
	if i := r.indexLocked(acct.Identity()); i >= 0 {
		r.accounts[i] = acct
	} else {
		// New entries go to the front so a timestamp tie still favors the
		// just-saved account.
		r.accounts = slices.Insert(r.accounts, 0, acct)
	}
	r.sortLocked()
	r.mu.Unlock()

	r.invalidateCache()
	r.publishChanged()
}

// Remove deletes the entry with the given identity. It reports whether an
// entry was removed and whether that entry was the current account; the
// caller decides the replacement (see the login arbiter) — the registry
// performs no cascading login logic.
func (r *Registry) Remove(id account.Identity) (removed, wasCurrent bool) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i >= 0 {
		r.accounts = slices.Delete(r.accounts, i, i+1)
	}
	r.mu.Unlock()

	if i < 0 {
		return false, false
	}

	r.invalidateCache()
	r.publishChanged()
	return true, i == 0
}

// ClearToken empties the token of the entry with the given identity, which
// demotes it behind all valid accounts. Reports whether the entry existed.
func (r *Registry) ClearToken(id account.Identity) bool {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i >= 0 {
		r.accounts[i].Token = ""
		r.sortLocked()
	}
	r.mu.Unlock()

	if i < 0 {
		return false
	}

	r.invalidateCache()
	r.publishChanged()
	return true
}

// SetServerInfo updates the capability metadata of the entry with the given
// identity. A change event is published only when the entry is the current
// account, to avoid redundant refresh storms for background accounts.
// Reports whether the entry existed.
func (r *Registry) SetServerInfo(id account.Identity, info account.ServerInfo) bool {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i >= 0 {
		r.accounts[i].ServerInfo = info
	}
	r.mu.Unlock()

	if i < 0 {
		return false
	}

	r.invalidateCache()
	if i == 0 {
		r.publishChanged()
	}
	return true
}

// SetAccountInfo updates quota and display metadata of the entry with the
// given identity and publishes an account-info-updated event carrying the
// updated entry. Reports whether the entry existed.
func (r *Registry) SetAccountInfo(id account.Identity, info account.AccountInfo) bool {
	r.mu.Lock()
	i := r.indexLocked(id)
	var updated account.Account
	if i >= 0 {
		r.accounts[i].AccountInfo = info
		updated = r.accounts[i]
	}
	r.mu.Unlock()

	if i < 0 {
		return false
	}

	if r.broadcaster != nil {
		r.broadcaster.Publish(events.Event{Type: events.TypeAccountInfoUpdated, Account: &updated})
	}
	return true
}

// Accounts returns a snapshot copy of the ordered collection.
func (r *Registry) Accounts() []account.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.accounts)
}

// Current returns the first entry, if any.
func (r *Registry) Current() (account.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.accounts) == 0 {
		return account.Account{}, false
	}
	return r.accounts[0], true
}

// Len reports the number of accounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// Find returns the entry with the given identity.
func (r *Registry) Find(id account.Identity) (account.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.accounts[i], true
	}
	return account.Account{}, false
}

// FindByHostAndUsername returns the first entry whose server host and
// username match.
func (r *Registry) FindByHostAndUsername(host, username string) (account.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Host() == host && a.Username == username {
			return a, true
		}
	}
	return account.Account{}, false
}

// FindBySignature returns the entry with the given per-account signature.
func (r *Registry) FindBySignature(sig string) (account.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Signature() == sig {
			return a, true
		}
	}
	return account.Account{}, false
}

// Capabilities returns the current account's capability metadata from the
// derived cache, computing it on a miss. The zero value is returned when the
// registry is empty.
func (r *Registry) Capabilities() account.ServerInfo {
	r.cacheMu.Lock()
	if r.caps != nil {
		info := *r.caps
		r.cacheMu.Unlock()
		return info
	}
	r.cacheMu.Unlock()

	// Compute outside cacheMu: the registry lock is never acquired while
	// holding the cache lock.
	current, ok := r.Current()
	var info account.ServerInfo
	if ok {
		info = current.ServerInfo
	}

	r.cacheMu.Lock()
	r.caps = &info
	r.cacheMu.Unlock()
	return info
}

// invalidateCache clears the derived capability cache. Kept out of the
// registry lock so a cache read only ever waits for the clear itself.
func (r *Registry) invalidateCache() {
	r.cacheMu.Lock()
	r.caps = nil
	r.cacheMu.Unlock()
}

func (r *Registry) publishChanged() {
	if r.broadcaster != nil {
		r.broadcaster.Publish(events.Event{Type: events.TypeAccountsChanged})
	}
}

// indexLocked returns the index of the entry with the given identity, or -1.
func (r *Registry) indexLocked(id account.Identity) int {
	return slices.IndexFunc(r.accounts, func(a account.Account) bool {
		return a.Is(id)
	})
}

// sortLocked restores the ordering invariant: valid accounts before invalid
// ones, then descending lastVisited. The sort is stable so an idempotent
// upsert leaves relative order untouched.
func (r *Registry) sortLocked() {
	slices.SortStableFunc(r.accounts, func(a, b account.Account) int {
		switch {
		case account.Less(a, b):
			return -1
		case account.Less(b, a):
			return 1
		default:
			return 0
		}
	})
}

// ABOUTME: AccountStore interface and sentinel errors for account persistence
// ABOUTME: Defines the contract implemented by the SQLite store

package store

import (
	"context"
	"errors"

	"github.com/driftsync/driftsync/internal/account"
)

// ErrNotFound is returned when a requested account row does not exist.
var ErrNotFound = errors.New("account not found")

// ServerInfo keys recognized on load. Unrecognized keys are ignored.
const (
	KeyVersion      = "version"
	KeyFeatures     = "features"
	KeyCustomBrand  = "custom-brand"
	KeyCustomLogo   = "custom-logo"
	KeyTotalStorage = "storage.total"
	KeyUsedStorage  = "storage.used"
	KeyNickname     = "name"
)

// AccountStore defines the persistence contract for accounts and their
// per-server metadata. Apart from Open-time schema setup, every write is a
// single atomic statement; callers treat write failures as non-fatal and keep
// the in-memory registry authoritative for the running process.
type AccountStore interface {
	// LoadAll reads all account rows joined with their ServerInfo rows,
	// ordered by the registry ordering rule.
	LoadAll(ctx context.Context) ([]account.Account, error)

	// UpsertAccount inserts or replaces the account row for the account's
	// identity. ServerInfo rows are not touched.
	UpsertAccount(ctx context.Context, acct account.Account) error

	// DeleteAccount removes the account row; ServerInfo rows cascade.
	DeleteAccount(ctx context.Context, id account.Identity) error

	// TouchLastVisited updates only the lastVisited column.
	TouchLastVisited(ctx context.Context, id account.Identity, visitedMs int64) error

	// ClearToken nulls the token column, keeping the row.
	ClearToken(ctx context.Context, id account.Identity) error

	// SetServerInfoField writes one typed key/value pair for the identity.
	SetServerInfoField(ctx context.Context, id account.Identity, key, value string) error

	// Close releases the underlying database handle.
	Close() error
}

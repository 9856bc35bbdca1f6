// ABOUTME: SQLite implementation of AccountStore using modernc.org/sqlite
// ABOUTME: Owns schema creation and idempotent additive column migrations

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/driftsync/driftsync/internal/account"
)

// SQLiteStore implements AccountStore on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens or creates the account database at the given path.
// Parent directories are created if needed. Foreign-key enforcement is
// enabled per connection; failure to open or initialize is fatal to start-up
// and surfaced as an error here.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening account database: %w", err)
	}

	// WAL for concurrent readers alongside the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Foreign keys must be enabled per connection; ServerInfo rows rely on
	// the cascade to follow their Accounts row.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("account store initialized", "path", path)
	return s, nil
}

// createSchema creates the base tables if they don't exist. The auth-mode
// and auto-login columns are deliberately absent here: they arrived after
// the first release and are applied by runMigrations so that databases from
// older versions upgrade in place.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS Accounts (
			url VARCHAR(24),
			username VARCHAR(15),
			token VARCHAR(40),
			lastVisited INTEGER,
			PRIMARY KEY(url, username)
		);

		CREATE TABLE IF NOT EXISTS ServerInfo (
			key TEXT NOT NULL,
			value TEXT,
			url VARCHAR(24),
			username VARCHAR(15),
			PRIMARY KEY(url, username, key),
			FOREIGN KEY(url, username) REFERENCES Accounts(url, username)
				ON DELETE CASCADE ON UPDATE CASCADE
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies additive schema migrations for existing databases.
// SQLite has no ADD COLUMN IF NOT EXISTS, so each migration checks
// pragma_table_info first; re-running start-up is a no-op.
func (s *SQLiteStore) runMigrations() error {
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('Accounts') WHERE name = 'isShibboleth'`,
			apply:  `ALTER TABLE Accounts ADD COLUMN isShibboleth INTEGER`,
			column: "isShibboleth",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('Accounts') WHERE name = 'AutomaticLogin'`,
			apply:  `ALTER TABLE Accounts ADD COLUMN AutomaticLogin INTEGER DEFAULT 1`,
			column: "AutomaticLogin",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('Accounts') WHERE name = 'isKerberos'`,
			apply:  `ALTER TABLE Accounts ADD COLUMN isKerberos INTEGER`,
			column: "isKerberos",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to Accounts: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "Accounts")
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing account store")
	return s.db.Close()
}

// LoadAll reads all account rows with their ServerInfo key/value pairs and
// returns them in registry order: valid accounts first, then most recently
// visited first within each group.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]account.Account, error) {
	query := `
		SELECT url, username, token, lastVisited, isShibboleth, AutomaticLogin, isKerberos
		FROM Accounts
		ORDER BY lastVisited DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []account.Account
	for rows.Next() {
		var (
			acct         account.Account
			token        sql.NullString
			lastVisited  sql.NullInt64
			isShibboleth sql.NullInt64
			autoLogin    sql.NullInt64
			isKerberos   sql.NullInt64
		)

		if err := rows.Scan(&acct.ServerURL, &acct.Username, &token, &lastVisited,
			&isShibboleth, &autoLogin, &isKerberos); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}

		acct.Token = token.String
		acct.LastVisited = lastVisited.Int64
		switch {
		case isShibboleth.Int64 != 0:
			acct.AuthMode = account.AuthShibboleth
		case isKerberos.Int64 != 0:
			acct.AuthMode = account.AuthKerberos
		default:
			acct.AuthMode = account.AuthPassword
		}
		// Rows predating the AutomaticLogin migration carry NULL, which
		// the column default treats as enabled.
		acct.AutoLogin = !autoLogin.Valid || autoLogin.Int64 != 0

		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	for i := range accounts {
		if err := s.loadServerInfo(ctx, &accounts[i]); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(accounts, func(a, b account.Account) int {
		switch {
		case account.Less(a, b):
			return -1
		case account.Less(b, a):
			return 1
		default:
			return 0
		}
	})

	s.logger.Info("loaded accounts", "count", len(accounts))
	return accounts, nil
}

// loadServerInfo reconstructs the account's ServerInfo/AccountInfo from its
// typed key/value rows. Unrecognized keys are ignored, not an error.
func (s *SQLiteStore) loadServerInfo(ctx context.Context, acct *account.Account) error {
	query := `SELECT key, value FROM ServerInfo WHERE url = ? AND username = ?`

	rows, err := s.db.QueryContext(ctx, query, acct.ServerURL, acct.Username)
	if err != nil {
		return fmt.Errorf("querying server info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning server info row: %w", err)
		}

		switch key {
		case KeyVersion:
			acct.ServerInfo.Version = value.String
		case KeyFeatures:
			acct.ServerInfo.Features = account.ParseFeatures(value.String)
		case KeyCustomBrand:
			acct.ServerInfo.CustomBrand = value.String
		case KeyCustomLogo:
			acct.ServerInfo.CustomLogo = value.String
		case KeyTotalStorage:
			acct.AccountInfo.TotalStorage, _ = strconv.ParseInt(value.String, 10, 64)
		case KeyUsedStorage:
			acct.AccountInfo.UsedStorage, _ = strconv.ParseInt(value.String, 10, 64)
		case KeyNickname:
			acct.AccountInfo.Name = value.String
		}
	}
	return rows.Err()
}

// UpsertAccount inserts or updates the account row for the account's
// identity. An UPDATE on conflict (rather than REPLACE) keeps the existing
// row in place so the ServerInfo cascade is not triggered by a save.
func (s *SQLiteStore) UpsertAccount(ctx context.Context, acct account.Account) error {
	query := `
		INSERT INTO Accounts (url, username, token, lastVisited, isShibboleth, AutomaticLogin, isKerberos)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url, username) DO UPDATE SET
			token = excluded.token,
			lastVisited = excluded.lastVisited,
			isShibboleth = excluded.isShibboleth,
			AutomaticLogin = excluded.AutomaticLogin,
			isKerberos = excluded.isKerberos
	`

	_, err := s.db.ExecContext(ctx, query,
		acct.ServerURL,
		acct.Username,
		acct.Token,
		acct.LastVisited,
		boolToInt(acct.AuthMode == account.AuthShibboleth),
		boolToInt(acct.AutoLogin),
		boolToInt(acct.AuthMode == account.AuthKerberos),
	)
	if err != nil {
		return fmt.Errorf("upserting account: %w", err)
	}

	s.logger.Debug("saved account", "url", acct.ServerURL, "username", acct.Username)
	return nil
}

// DeleteAccount removes the account row. ServerInfo rows follow through the
// foreign-key cascade. Returns ErrNotFound if no row matched.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id account.Identity) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM Accounts WHERE url = ? AND username = ?`,
		id.ServerURL, id.Username)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted account", "url", id.ServerURL, "username", id.Username)
	return nil
}

// TouchLastVisited updates the lastVisited column for the identity.
func (s *SQLiteStore) TouchLastVisited(ctx context.Context, id account.Identity, visitedMs int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE Accounts SET lastVisited = ? WHERE url = ? AND username = ?`,
		visitedMs, id.ServerURL, id.Username)
	if err != nil {
		return fmt.Errorf("updating last visited: %w", err)
	}
	return nil
}

// ClearToken nulls the token column, keeping the row and its ServerInfo.
func (s *SQLiteStore) ClearToken(ctx context.Context, id account.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE Accounts SET token = NULL WHERE url = ? AND username = ?`,
		id.ServerURL, id.Username)
	if err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}

	s.logger.Debug("cleared token", "url", id.ServerURL, "username", id.Username)
	return nil
}

// SetServerInfoField writes one key/value pair for the identity. REPLACE is
// safe here: ServerInfo rows have no children.
func (s *SQLiteStore) SetServerInfoField(ctx context.Context, id account.Identity, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`REPLACE INTO ServerInfo (url, username, key, value) VALUES (?, ?, ?, ?)`,
		id.ServerURL, id.Username, key, value)
	if err != nil {
		return fmt.Errorf("setting server info %s: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements AccountStore.
var _ AccountStore = (*SQLiteStore)(nil)

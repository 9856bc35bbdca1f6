// Package store provides durable persistence for accounts using SQLite.
//
// # Schema
//
// Two tables, matching the on-disk format of earlier client releases:
//
//	Accounts(url, username, token, lastVisited,
//	         isShibboleth, AutomaticLogin, isKerberos)
//	         PRIMARY KEY (url, username)
//	ServerInfo(key, value, url, username)
//	         PRIMARY KEY (url, username, key)
//	         FOREIGN KEY (url, username) -> Accounts ON DELETE CASCADE
//
// The base tables carry only the original four account columns; the three
// flag columns are added by idempotent migrations that consult
// pragma_table_info before issuing ALTER TABLE, so databases created by any
// prior release upgrade in place and re-running start-up is a no-op.
//
// ServerInfo holds typed key/value pairs per account (version, features,
// custom-brand, custom-logo, storage.total, storage.used, name). Unknown
// keys are ignored on load.
//
// # SQLite configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Foreign-key enforcement is required: deleting an account must cascade to
// its ServerInfo rows. Failure to open or initialize the store is fatal to
// client start-up; individual write failures afterwards are logged by the
// caller and the in-memory registry stays authoritative for the session.
//
// Use NewSQLiteStore(":memory:") in tests.
package store

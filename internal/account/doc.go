// Package account defines the data model for remote-server accounts.
//
// An account is keyed by its Identity: the (server URL, username) pair.
// An account is valid iff it holds a non-empty token. The registry keeps
// accounts ordered with Less: valid before invalid, then most recently
// visited first; the front account is the "current" one the rest of the
// client operates against.
package account

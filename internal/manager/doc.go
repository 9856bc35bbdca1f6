// Package manager composes the account subsystem behind a single facade.
//
// The Manager owns the SQLite-backed store, the in-memory ordered registry,
// the asynchronous capability syncer and the login arbiter. External callers
// (CLI, RPC layer) interact only with the Manager:
//
//	m, err := manager.New(manager.Options{...})
//	if err := m.Start(ctx); err != nil { ... }   // fatal: store unreadable
//	m.SaveAccount(ctx, acct)                     // new login
//	activated, err := m.ValidateAndUse(ctx, id)  // switch accounts
//	m.InvalidateCurrentLogin(ctx)                // daemon reported 401
//
// All collaborators — capability client, daemon notifier, settings,
// interactive login flows, the startup timestamp — are injected through
// Options rather than reached through process-global state.
//
// Interactive login flows are the one intentionally blocking step; they run
// from ValidateAndUse / InvalidateCurrentLogin outside any lock. Capability
// syncs are fire-and-forget; their completions re-check account existence
// before applying, so a response that arrives after the account was removed
// is discarded.
package manager

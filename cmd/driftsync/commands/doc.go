// Package commands defines the driftsync CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init      Write a default config file
//   - login     Authenticate against a server and store the account
//   - logout    Remove a stored account
//   - use       Switch the current account, re-authenticating if needed
//   - accounts  List stored accounts in priority order
//   - sync      Refresh capability metadata for the current account
//   - status    Show the current account, server capabilities and quota
//
// # Implementation
//
// The root command loads the config, opens the accounts database and builds
// the account manager before any subcommand runs, so handlers share one app
// context. cobra's RunE errors surface on stderr and set the exit code.
package commands

// ABOUTME: Root command for the driftsync CLI
// ABOUTME: Loads config, opens the accounts database and builds the shared app context

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftsync/driftsync/internal/config"
	"github.com/driftsync/driftsync/internal/login"
	"github.com/driftsync/driftsync/internal/manager"
	"github.com/driftsync/driftsync/internal/store"
)

var (
	configPath string
	dbPath     string

	appManager *manager.Manager
)

func Execute() error {
	root := &cobra.Command{
		Use:           "driftsync",
		Short:         "Account management for the driftsync client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// init writes the config; it must not require one.
			if cmd.Name() == "init" {
				return nil
			}
			return setupApp(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appManager == nil {
				return nil
			}
			return appManager.Close()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/driftsync/config.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "accounts database (overrides config)")

	root.AddCommand(initCmd(), loginCmd(), logoutCmd(), useCmd(), accountsCmd(), syncCmd(), statusCmd())

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func setupApp(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger := setupLogger(cfg.Logging)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening accounts database: %w", err)
	}

	api := newAPIClient()
	m, err := manager.New(manager.Options{
		Store:        st,
		Capabilities: api,
		Settings:     cfg.Client,
		Flows: login.Flows{
			Password: login.NewTerminalPasswordFlow(api),
		},
		OnNewAccountNeeded: func(ctx context.Context) {
			fmt.Println("No accounts left. Run 'driftsync login' to add one.")
		},
		Logger: logger,
	})
	if err != nil {
		st.Close()
		return err
	}

	if err := m.Start(cmd.Context()); err != nil {
		st.Close()
		return err
	}

	appManager = m
	return nil
}

// loadConfig reads the configured path. With no explicit --config and no file
// at the default location, built-in defaults apply.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

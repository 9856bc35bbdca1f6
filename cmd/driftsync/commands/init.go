// ABOUTME: init command writing a starter config file
// ABOUTME: Creates the driftsync config directory with commented defaults

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/driftsync/driftsync/internal/config"
)

const configTemplate = `# driftsync client configuration

database:
  path: "%s"

client:
  # Reported to the server as this machine's name; defaults to the hostname.
  name: ""

sync:
  refresh_interval: "10m"

logging:
  level: "info"   # debug, info, warn, error
  format: "text"  # text, json
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}

			dbPath, err := config.DefaultDatabasePath()
			if err != nil {
				return err
			}
			content := fmt.Sprintf(configTemplate, dbPath)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

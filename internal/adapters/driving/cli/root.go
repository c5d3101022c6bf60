// Package cli provides the cmisimport command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmisimport/internal/adapters/driving/styles"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Services injected by main.
var (
	sessionService  driving.SessionService
	runService      driving.RunService
	settingsService driving.SettingsService
)

var ui = styles.DefaultStyles()

// Services holds the core services the commands drive.
type Services struct {
	Session  driving.SessionService
	Runs     driving.RunService
	Settings driving.SettingsService
}

// SetServices injects the core services.
func SetServices(s Services) {
	sessionService = s.Session
	runService = s.Runs
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "cmisimport",
	Short: "Import content into a CMIS repository",
	Long: `cmisimport imports documents, folders and typed records into a
CMIS content repository such as Alfresco.

Items are read from TOML, YAML or JSON manifests. Each item is placed in
its destination folder, or its site's document library, and either
created, updated or skipped depending on what already exists there.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log repository calls and resolution steps")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

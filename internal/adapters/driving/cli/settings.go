package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the repository connection, import and gateway settings.

Settings are stored in ~/.cmisimport/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting by its config key, for example:

  cmisimport settings set repository.hostname alfresco.example.com
  cmisimport settings set import.overwrite true

Run "cmisimport settings keys" for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the settable keys",
	RunE:  runSettingsKeys,
}

var settingsPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Set the repository password",
	Long:  `Prompt for the repository password without echoing it. Piped input is read as one line.`,
	RunE:  runSettingsPassword,
}

// passwordInput is swapped in tests.
var passwordInput = readPassword

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsPasswordCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	conn := settings.Connection

	cmd.Println(ui.Title.Render("[Repository]"))
	cmd.Printf("  URL: %s\n", conn.URL())
	if conn.RepositoryID != "" {
		cmd.Printf("  Repository ID: %s\n", conn.RepositoryID)
	}
	if conn.UsesToken() {
		cmd.Printf("  Token: %s\n", maskSecret(conn.Token))
	} else {
		cmd.Printf("  User: %s\n", conn.User)
		cmd.Printf("  Password: %s\n", maskSecret(conn.Password))
	}
	cmd.Println()

	cmd.Println(ui.Title.Render("[Import]"))
	cmd.Printf("  Overwrite: %t\n", settings.Import.Overwrite)
	cmd.Printf("  Secondary types: %t\n", settings.Import.SecondaryTypes)
	cmd.Println()

	gw := settings.Gateway
	cmd.Println(ui.Title.Render("[Gateway]"))
	cmd.Printf("  Rate: %.1f req/s (burst %d)\n", gw.RequestsPerSecond, gw.Burst)
	cmd.Printf("  Max retries: %d\n", gw.MaxRetries)
	cmd.Printf("  Timeout: %s\n", gw.Timeout)

	if err := settings.Validate(); err != nil {
		cmd.Println()
		cmd.Println(ui.Warning.Render(err.Error()))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsPassword(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Password: ")
	password := passwordInput(cmd.InOrStdin())
	cmd.Println()
	if password == "" {
		return errors.New("password not changed: empty input")
	}
	if err := settingsService.SetPassword(password); err != nil {
		return err
	}
	cmd.Println("Password saved.")
	return nil
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:2] + "..." + secret[len(secret)-2:]
	}
}

package driving

import "github.com/custodia-labs/cmisimport/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its config key.
	Set(key, value string) error

	// SetPassword stores the repository password.
	SetPassword(password string) error

	// Keys returns the settable config keys.
	Keys() []string

	// Validate checks if current settings can be used to connect.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}

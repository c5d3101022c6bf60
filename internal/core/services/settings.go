package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyScheme         = "repository.scheme"
	keyHostname       = "repository.hostname"
	keyPort           = "repository.port"
	keyUser           = "repository.user"
	keyPassword       = "repository.password"
	keyServicePath    = "repository.service_path"
	keyRepositoryID   = "repository.repository_id"
	keyToken          = "repository.token"
	keyOverwrite      = "import.overwrite"
	keySecondaryTypes = "import.secondary_types"
	keyRate           = "gateway.requests_per_second"
	keyBurst          = "gateway.burst"
	keyMaxRetries     = "gateway.max_retries"
	keyTimeout        = "gateway.timeout_seconds"
)

// settingKind is how a key's string form is parsed by Set.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds lists every key Set accepts. The password is set through SetPassword.
var settingKinds = map[string]settingKind{
	keyScheme:         kindString,
	keyHostname:       kindString,
	keyPort:           kindString,
	keyUser:           kindString,
	keyServicePath:    kindString,
	keyRepositoryID:   kindString,
	keyToken:          kindString,
	keyOverwrite:      kindBool,
	keySecondaryTypes: kindBool,
	keyRate:           kindFloat,
	keyBurst:          kindInt,
	keyMaxRetries:     kindInt,
	keyTimeout:        kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Connection: domain.ConnectionSettings{
			Scheme:       domain.Scheme(s.getString(keyScheme, defaults.Connection.Scheme.String())),
			Hostname:     s.getString(keyHostname, defaults.Connection.Hostname),
			Port:         s.getString(keyPort, defaults.Connection.Port),
			User:         s.getString(keyUser, defaults.Connection.User),
			Password:     s.getString(keyPassword, defaults.Connection.Password),
			ServicePath:  s.getString(keyServicePath, defaults.Connection.ServicePath),
			RepositoryID: s.getString(keyRepositoryID, defaults.Connection.RepositoryID),
			Token:        s.getString(keyToken, ""),
		},
		Import: domain.ImportSettings{
			Overwrite:      s.getBool(keyOverwrite, defaults.Import.Overwrite),
			SecondaryTypes: s.getBool(keySecondaryTypes, defaults.Import.SecondaryTypes),
		},
		Gateway: domain.GatewaySettings{
			RequestsPerSecond: s.getFloat(keyRate, defaults.Gateway.RequestsPerSecond),
			Burst:             s.getInt(keyBurst, defaults.Gateway.Burst),
			MaxRetries:        s.getInt(keyMaxRetries, defaults.Gateway.MaxRetries),
			Timeout: time.Duration(s.getInt(keyTimeout, int(defaults.Gateway.Timeout/time.Second))) *
				time.Second,
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyScheme, settings.Connection.Scheme.String()},
		{keyHostname, settings.Connection.Hostname},
		{keyPort, settings.Connection.Port},
		{keyUser, settings.Connection.User},
		{keyServicePath, settings.Connection.ServicePath},
		{keyRepositoryID, settings.Connection.RepositoryID},
		{keyOverwrite, settings.Import.Overwrite},
		{keySecondaryTypes, settings.Import.SecondaryTypes},
		{keyRate, settings.Gateway.RequestsPerSecond},
		{keyBurst, settings.Gateway.Burst},
		{keyMaxRetries, settings.Gateway.MaxRetries},
		{keyTimeout, int(settings.Gateway.Timeout / time.Second)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set
	if settings.Connection.Password != "" {
		if err := s.configStore.Set(keyPassword, settings.Connection.Password); err != nil {
			return fmt.Errorf("save %s: %w", keyPassword, err)
		}
	}
	if settings.Connection.Token != "" {
		if err := s.configStore.Set(keyToken, settings.Connection.Token); err != nil {
			return fmt.Errorf("save %s: %w", keyToken, err)
		}
	}

	return nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		if key == keyScheme && !domain.Scheme(value).IsValid() {
			return fmt.Errorf("%w: scheme must be http or https", domain.ErrInvalidInput)
		}
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetPassword stores the repository password.
func (s *SettingsService) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyPassword, password); err != nil {
		return fmt.Errorf("save %s: %w", keyPassword, err)
	}
	return nil
}

// Keys returns the settable config keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if current settings can be used to connect.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if str := s.configStore.GetString(key); str != "" {
		return str
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return float64(v)
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

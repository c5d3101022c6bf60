package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Scheme is the transport used to reach the repository.
type Scheme string

// Supported schemes.
const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// IsValid returns true if the scheme is recognised.
func (s Scheme) IsValid() bool {
	return s == SchemeHTTP || s == SchemeHTTPS
}

// String returns the string representation.
func (s Scheme) String() string {
	return string(s)
}

// ConnectionSettings holds repository connection parameters.
type ConnectionSettings struct {
	Scheme   Scheme
	Hostname string

	// Port may be empty, in which case the scheme's default is used.
	Port string

	User     string
	Password string

	// ServicePath is the browser binding path on the host.
	ServicePath string

	// RepositoryID selects a repository; empty means the first one reported.
	RepositoryID string

	// Token is a bearer token used instead of User/Password when set.
	Token string
}

// URL returns the browser binding service URL.
func (c ConnectionSettings) URL() string {
	host := c.Hostname
	if c.Port != "" {
		host += ":" + c.Port
	}
	u := url.URL{Scheme: c.Scheme.String(), Host: host, Path: c.ServicePath}
	return u.String()
}

// UsesToken returns true if bearer authentication is configured.
func (c ConnectionSettings) UsesToken() bool {
	return c.Token != ""
}

// ImportSettings holds import behaviour settings.
type ImportSettings struct {
	// Overwrite updates existing same-named objects instead of skipping them.
	Overwrite bool

	// SecondaryTypes sends aspects as cmis:secondaryObjectTypeIds
	// instead of the comma-joined cmis:objectTypeId form.
	SecondaryTypes bool
}

// GatewaySettings holds transport tuning for the repository gateway.
type GatewaySettings struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int

	// MaxRetries bounds retries of idempotent reads.
	MaxRetries int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Connection holds repository connection settings.
	Connection ConnectionSettings

	// Import holds import behaviour settings.
	Import ImportSettings

	// Gateway holds transport settings.
	Gateway GatewaySettings
}

// DefaultServicePath is the Alfresco CMIS 1.1 browser binding path.
const DefaultServicePath = "/alfresco/api/-default-/public/cmis/versions/1.1/browser"

// DefaultAppSettings returns settings with sensible defaults.
// The defaults address a local Alfresco with its stock admin account.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Connection: ConnectionSettings{
			Scheme:      SchemeHTTP,
			Hostname:    "localhost",
			Port:        "8080",
			User:        "admin",
			Password:    "admin",
			ServicePath: DefaultServicePath,
		},
		Import: ImportSettings{
			Overwrite: false,
		},
		Gateway: GatewaySettings{
			RequestsPerSecond: 10,
			Burst:             20,
			MaxRetries:        3,
			Timeout:           30 * time.Second,
		},
	}
}

// Validate checks the settings for values that cannot work.
func (s *AppSettings) Validate() error {
	var errs []error
	if !s.Connection.Scheme.IsValid() {
		errs = append(errs, fmt.Errorf("invalid scheme: %q", s.Connection.Scheme))
	}
	if s.Connection.Hostname == "" {
		errs = append(errs, errors.New("hostname is required"))
	}
	if s.Connection.Port != "" {
		if p, err := strconv.Atoi(s.Connection.Port); err != nil || p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf("invalid port: %q", s.Connection.Port))
		}
	}
	if !s.Connection.UsesToken() && s.Connection.User == "" {
		errs = append(errs, errors.New("user is required when no token is set"))
	}
	if s.Gateway.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if s.Gateway.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive"))
	}
	if s.Gateway.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

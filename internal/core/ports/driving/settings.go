package driving

import "github.com/custodia-labs/finkit/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults overlaid with stored values.
	Get() (*domain.Settings, error)

	// Set validates and stores one key.
	Set(key, value string) error

	// Unset removes a stored key so the default applies again.
	Unset(key string) error

	// Defaults returns the built-in defaults.
	Defaults() domain.Settings

	// Path returns the configuration file path.
	Path() string
}

package driving

import "github.com/custodia-labs/ragchat/internal/core/domain"

// SettingsService resolves the effective application settings.
type SettingsService interface {
	// Get returns the validated settings after applying every configuration layer.
	Get() (*domain.AppSettings, error)

	// Set writes a key to the configuration file.
	Set(key, value string) error

	// ConfigPath returns the configuration file location.
	ConfigPath() string
}

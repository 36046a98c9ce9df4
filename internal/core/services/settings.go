package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Defaults returns the built-in settings.
func (s *SettingsService) Defaults() domain.Settings {
	var settings domain.Settings
	// Tags are static; an error here is a programming mistake caught by tests.
	_ = defaults.Set(&settings)
	return settings
}

// Get re-reads the store and returns defaults overlaid with stored values.
// Stored values that fail to parse are ignored with the default kept.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.Defaults()
	if s.configStore == nil {
		return &settings, nil
	}
	if err := s.configStore.Reload(); err != nil {
		return nil, err
	}

	for _, key := range domain.SettingKeys() {
		raw, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		_ = apply(&settings, key, fmt.Sprint(raw))
	}

	if err := validateStruct(settings); err != nil {
		return nil, fmt.Errorf("stored settings in %s: %w", s.configStore.Path(), err)
	}
	return &settings, nil
}

// Set validates and stores a single key.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	key = strings.ToLower(strings.TrimSpace(key))

	current, err := s.Get()
	if err != nil {
		// Allow fixing a broken file one key at a time.
		d := s.Defaults()
		current = &d
	}
	if err := apply(current, key, value); err != nil {
		return err
	}
	if err := validateStruct(current); err != nil {
		return err
	}

	return s.configStore.Set(key, storedValue(key, value))
}

// Unset removes a stored key.
func (s *SettingsService) Unset(key string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if !isKnownKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Delete(key)
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	if s.configStore == nil {
		return ""
	}
	return s.configStore.Path()
}

func isKnownKey(key string) bool {
	for _, k := range domain.SettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// apply parses value according to key's type and writes it into settings.
func apply(settings *domain.Settings, key, value string) error {
	value = strings.TrimSpace(value)
	var err error

	switch key {
	case domain.KeyEDGARUserAgent:
		settings.EDGAR.UserAgent = value
	case domain.KeyEDGARRateLimit:
		settings.EDGAR.RateLimit, err = parseFloat(key, value)
	case domain.KeyEDGARWorkers:
		settings.EDGAR.Workers, err = parseInt(key, value)
	case domain.KeyEDGARFilingTTL:
		settings.EDGAR.FilingTTL, err = parseDuration(key, value)
	case domain.KeyFREDAPIKey:
		settings.Market.FREDAPIKey = value
	case domain.KeyMarketRateLimit:
		settings.Market.RateLimit, err = parseFloat(key, value)
	case domain.KeyFeedsMaxItems:
		settings.Feeds.MaxItemsPerFeed, err = parseInt(key, value)
	case domain.KeyFeedsWorkers:
		settings.Feeds.Workers, err = parseInt(key, value)
	case domain.KeyFeedsTimeout:
		settings.Feeds.Timeout, err = parseDuration(key, value)
	case domain.KeyFeedsRetries:
		settings.Feeds.Retries, err = parseInt(key, value)
	case domain.KeyCacheTTL:
		settings.Cache.TTL, err = parseDuration(key, value)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return err
}

// storedValue converts the textual value into the TOML type for key.
// Durations are kept as strings ("24h").
func storedValue(key, value string) any {
	value = strings.TrimSpace(value)
	switch key {
	case domain.KeyEDGARRateLimit, domain.KeyMarketRateLimit:
		f, _ := strconv.ParseFloat(value, 64)
		return f
	case domain.KeyEDGARWorkers, domain.KeyFeedsMaxItems, domain.KeyFeedsWorkers, domain.KeyFeedsRetries:
		n, _ := strconv.Atoi(value)
		return n
	default:
		return value
	}
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrInvalidInput, key, value)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s expects a number, got %q", domain.ErrInvalidInput, key, value)
	}
	return f, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s expects a duration like 24h, got %q", domain.ErrInvalidInput, key, value)
	}
	return d, nil
}

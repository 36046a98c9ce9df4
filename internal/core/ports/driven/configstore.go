package driven

// ConfigStore holds raw configuration values under flattened dot keys
// such as "edgar.user_agent". Typing and validation happen in the
// settings service.
type ConfigStore interface {
	// Get returns the stored value and whether the key is present.
	Get(key string) (any, bool)

	// Keys lists stored keys in sorted order.
	Keys() []string

	// Set stores value and persists the change.
	Set(key string, value any) error

	// Delete removes key and persists the change. Missing keys are not an error.
	Delete(key string) error

	// Reload discards in-memory state and re-reads the backing storage.
	Reload() error

	// Path is the backing file, or "" when nothing is persisted.
	Path() string
}

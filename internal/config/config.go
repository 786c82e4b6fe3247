package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"

	"suggestbox/internal/domain"
	"suggestbox/internal/eventbus"
)

const (
	// DefaultEndpoint matches the autocomplete route of the image board
	DefaultEndpoint        = "http://localhost:8000/autocomplete/"
	DefaultAutotagEndpoint = "http://localhost:8000/autotag/"
	DefaultParam           = "q"

	defaultSearchDebounce = 50 * time.Millisecond
	defaultTagDebounce    = 5 * time.Millisecond
	defaultBlurGrace      = 100 * time.Millisecond
	defaultTimeout        = 3 * time.Second
	defaultUploadTimeout  = 30 * time.Second
	defaultCacheTTL       = 2 * time.Second
)

// Config represents the application configuration
type Config struct {
	Version  int           `toml:"version"`
	LogLevel string        `toml:"log_level"`
	Suggest  SuggestConfig `toml:"suggest"`
	Fields   []FieldConfig `toml:"fields"`
	Autotag  AutotagConfig `toml:"autotag"`
}

// SuggestConfig describes the suggestion endpoint
type SuggestConfig struct {
	Endpoint       string    `toml:"endpoint"`
	Param          string    `toml:"param"`
	Format         string    `toml:"format"` // auto, html, json, msgpack
	RequestTimeout Duration  `toml:"request_timeout"`
	CacheTTL       *Duration `toml:"cache_ttl,omitempty"` // nil means default, 0 disables
}

// CacheTTLValue returns the effective response cache TTL
func (s SuggestConfig) CacheTTLValue() time.Duration {
	if s.CacheTTL == nil {
		return defaultCacheTTL
	}
	return s.CacheTTL.Std()
}

// FieldConfig describes one input field of the form
type FieldConfig struct {
	Name        string            `toml:"name"`
	Label       string            `toml:"label"`
	Placeholder string            `toml:"placeholder,omitempty"`
	Accept      domain.AcceptMode `toml:"accept"`
	Separator   string            `toml:"separator,omitempty"`
	Debounce    Duration          `toml:"debounce"`
	BlurPolicy  domain.BlurPolicy `toml:"blur_policy"`
	BlurGrace   Duration          `toml:"blur_grace"`
}

// AutotagConfig describes the image auto-tagging endpoint
type AutotagConfig struct {
	Endpoint  string   `toml:"endpoint"`
	Field     string   `toml:"field"`
	CSRFToken string   `toml:"csrf_token,omitempty"`
	Image     string   `toml:"image,omitempty"`
	Timeout   Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string ("50ms") in TOML
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service for the default config path
func NewConfigService() ConfigService {
	return &configService{filePath: ConfigPath()}
}

// NewConfigServiceWithBus creates a config service that publishes load/save events.
// An empty path selects the default config path.
func NewConfigServiceWithBus(bus eventbus.EventBus, path string) ConfigService {
	if path == "" {
		path = ConfigPath()
	}
	return &configService{bus: bus, filePath: path}
}

// ConfigDir returns the config directory path.
// Resolution order: $SUGGESTBOX_CONFIG_DIR > $XDG_CONFIG_HOME/suggestbox > ~/.config/suggestbox
func ConfigDir() string {
	if dir := os.Getenv("SUGGESTBOX_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "suggestbox")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "suggestbox")
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults if it is missing
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		names := make([]string, 0, len(cfg.Fields))
		for _, f := range cfg.Fields {
			names = append(names, f.Name)
		}
		cs.bus.Publish(domain.ConfigLoadedEvent{Path: cs.filePath, Fields: names})
	}

	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(domain.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path and fills in defaults.
// A missing file yields an error wrapping os.ErrNotExist.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration: a free-text search field
// and a tag field, as on the image board's upload form.
func DefaultConfig() *Config {
	cfg := &Config{
		Version:  1,
		LogLevel: "info",
		Suggest: SuggestConfig{
			Endpoint: DefaultEndpoint,
			Param:    DefaultParam,
			Format:   "auto",
		},
		Fields: []FieldConfig{
			{
				Name:        "search",
				Label:       "Search",
				Placeholder: "search images",
				Accept:      domain.AcceptReplace,
				Debounce:    Duration(defaultSearchDebounce),
				BlurPolicy:  domain.BlurDelay,
			},
			{
				Name:        "tags",
				Label:       "Tags",
				Placeholder: "space separated tags",
				Accept:      domain.AcceptAppend,
				Debounce:    Duration(defaultTagDebounce),
				BlurPolicy:  domain.BlurHover,
			},
		},
		Autotag: AutotagConfig{
			Endpoint: DefaultAutotagEndpoint,
			Field:    "tags",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with defaults
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Suggest.Endpoint == "" {
		c.Suggest.Endpoint = DefaultEndpoint
	}
	if c.Suggest.Param == "" {
		c.Suggest.Param = DefaultParam
	}
	if c.Suggest.Format == "" {
		c.Suggest.Format = "auto"
	}
	if c.Suggest.RequestTimeout == 0 {
		c.Suggest.RequestTimeout = Duration(defaultTimeout)
	}
	if c.Autotag.Endpoint == "" {
		c.Autotag.Endpoint = DefaultAutotagEndpoint
	}
	if c.Autotag.Timeout == 0 {
		c.Autotag.Timeout = Duration(defaultUploadTimeout)
	}

	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Label == "" {
			f.Label = f.Name
		}
		if f.Accept == "" {
			f.Accept = domain.AcceptReplace
		}
		if f.Separator == "" {
			f.Separator = " "
		}
		if f.Debounce == 0 {
			if f.Accept == domain.AcceptAppend {
				f.Debounce = Duration(defaultTagDebounce)
			} else {
				f.Debounce = Duration(defaultSearchDebounce)
			}
		}
		if f.BlurPolicy == "" {
			f.BlurPolicy = domain.BlurDelay
		}
		if f.BlurGrace == 0 {
			f.BlurGrace = Duration(defaultBlurGrace)
		}
	}
}

// Validate checks the configuration and returns all problems found
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.Suggest.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("suggest.endpoint %q is not an absolute URL", c.Suggest.Endpoint))
	}
	switch c.Suggest.Format {
	case "auto", "html", "json", "msgpack":
	default:
		result = multierror.Append(result, fmt.Errorf("suggest.format %q must be one of auto, html, json, msgpack", c.Suggest.Format))
	}
	if c.Suggest.RequestTimeout < 0 || c.Suggest.CacheTTLValue() < 0 {
		result = multierror.Append(result, fmt.Errorf("suggest durations must not be negative"))
	}

	if len(c.Fields) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one field is required"))
	}
	seen := make(map[string]bool)
	for i, f := range c.Fields {
		if f.Name == "" {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: name is required", i))
		} else if seen[f.Name] {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true
		if !f.Accept.Valid() {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: accept %q must be replace or append", i, f.Accept))
		}
		if !f.BlurPolicy.Valid() {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: blur_policy %q must be delay or hover", i, f.BlurPolicy))
		}
		if f.Debounce < 0 || f.BlurGrace < 0 {
			result = multierror.Append(result, fmt.Errorf("fields[%d]: durations must not be negative", i))
		}
	}

	if c.Autotag.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("autotag.timeout must not be negative"))
	}
	if c.Autotag.Field != "" && !seen[c.Autotag.Field] {
		result = multierror.Append(result, fmt.Errorf("autotag.field %q does not name a field", c.Autotag.Field))
	}

	return result.ErrorOrNil()
}

// Field returns the field config with the given name
func (c *Config) Field(name string) (FieldConfig, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// ResolveEndpoint returns the suggestion endpoint.
// Priority: $SUGGESTBOX_ENDPOINT env > config value.
func ResolveEndpoint(cfg *Config) string {
	if v := os.Getenv("SUGGESTBOX_ENDPOINT"); v != "" {
		return v
	}
	if cfg != nil {
		return cfg.Suggest.Endpoint
	}
	return DefaultEndpoint
}

// ResolveAutotagEndpoint returns the auto-tag endpoint.
// Priority: $SUGGESTBOX_AUTOTAG_ENDPOINT env > config value.
func ResolveAutotagEndpoint(cfg *Config) string {
	if v := os.Getenv("SUGGESTBOX_AUTOTAG_ENDPOINT"); v != "" {
		return v
	}
	if cfg != nil {
		return cfg.Autotag.Endpoint
	}
	return DefaultAutotagEndpoint
}

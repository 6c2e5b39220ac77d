package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/framelens/internal/enhance"
	"github.com/starford/framelens/internal/raster"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Canvas  CanvasConfig      `yaml:"canvas"`
	Enhance EnhanceConfig     `yaml:"enhance"`
	Raster  RasterConfig      `yaml:"raster"`
	Locale  LocaleConfig      `yaml:"locale"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Enhance.Validate(); err != nil {
		return err
	}
	if err := c.Raster.Validate(); err != nil {
		return err
	}
	if err := c.Locale.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the SQLite database and rendered image locations.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	ImagesPath string `yaml:"images_path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.ImagesPath, validation.Required),
	)
}

// CanvasConfig points at the JSON document the host exports. An empty
// DocumentPath means the document only arrives through PUT /api/document.
type CanvasConfig struct {
	DocumentPath string `yaml:"document_path"`
	Watch        bool   `yaml:"watch"`
}

// EnhanceConfig holds the vision chat endpoint settings. APIKey seeds the
// credential when none has been saved yet.
type EnhanceConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Detail    string        `yaml:"detail"`
	Timeout   time.Duration `yaml:"timeout"`
	APIKey    string        `yaml:"api_key"`
}

// Validate validates the enhancement configuration.
func (c *EnhanceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.Detail, validation.In("low", "high", "auto")),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// Client returns the enhancement client config.
func (c *EnhanceConfig) Client() enhance.Config {
	return enhance.Config{
		Endpoint:  c.Endpoint,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Detail:    c.Detail,
		Timeout:   c.Timeout,
	}
}

// RasterConfig holds the export scale factor.
type RasterConfig struct {
	Scale float64 `yaml:"scale"`
}

// Validate validates the raster configuration.
func (c *RasterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Scale, validation.Required, validation.Min(0.1), validation.Max(8.0)),
	)
}

// LocaleConfig enables language detection over the extracted texts.
type LocaleConfig struct {
	Detect      bool     `yaml:"detect"`
	Languages   []string `yaml:"languages"`
	MinDistance float64  `yaml:"min_distance"`
}

// Validate validates the locale configuration.
func (c *LocaleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Languages, validation.When(c.Detect, validation.Required, validation.Length(2, 0))),
		validation.Field(&c.MinDistance, validation.Min(0.0), validation.Max(0.99)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			SQLitePath: "./framelens.db",
			ImagesPath: "./data",
		},
		Canvas: CanvasConfig{
			Watch: true,
		},
		Enhance: EnhanceConfig{
			Endpoint:  enhance.DefaultEndpoint,
			Model:     enhance.DefaultModel,
			MaxTokens: enhance.DefaultMaxTokens,
			Detail:    enhance.DefaultDetail,
			Timeout:   enhance.DefaultTimeout,
		},
		Raster: RasterConfig{
			Scale: raster.DefaultScale,
		},
		Locale: LocaleConfig{
			Languages:   []string{"en", "de", "fr", "es", "it", "pt", "nl"},
			MinDistance: 0.1,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// BackupDirEnv overrides onenote.backup_dir when set.
const BackupDirEnv = "ONENOTE_BACKUP_DIR"

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	OneNote    OneNoteConfig     `yaml:"onenote"`
	Decoder    DecoderConfig     `yaml:"decoder"`
	Automation AutomationConfig  `yaml:"automation"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.OneNote.Validate(); err != nil {
		return fmt.Errorf("onenote: %w", err)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	if err := c.Automation.Validate(); err != nil {
		return fmt.Errorf("automation: %w", err)
	}
	return c.Auth.Validate()
}

// ApplyEnv applies environment overrides that take precedence over the file.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(BackupDirEnv); dir != "" {
		c.OneNote.BackupDir = dir
	}
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

// HTTPConfig holds HTTP server configuration used by the serve command.
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

// OneNoteConfig locates the backup folder.
type OneNoteConfig struct {
	BackupDir string `yaml:"backup_dir"`
}

// Validate validates the OneNote configuration.
func (c *OneNoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BackupDir, validation.Required),
	)
}

// DecoderConfig configures the external section property decoder.
type DecoderConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the decoder configuration.
func (c *DecoderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// AutomationConfig configures writes through the running OneNote application.
type AutomationConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Shell        string        `yaml:"shell"`
	Timeout      time.Duration `yaml:"timeout"`
	SanitizeHTML bool          `yaml:"sanitize_html"`
}

// Validate validates the automation configuration.
func (c *AutomationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Shell, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Timeout, validation.When(c.Enabled, validation.Required, validation.Min(time.Second))),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// DefaultBackupDir returns where OneNote 2016 keeps its local backups.
func DefaultBackupDir() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "Microsoft", "OneNote", "16.0", "Backup")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "OneNote", "Backup")
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
		OneNote: OneNoteConfig{
			BackupDir: DefaultBackupDir(),
		},
		Decoder: DecoderConfig{
			Command: []string{"pyonenote-props"},
			Timeout: time.Minute,
		},
		Automation: AutomationConfig{
			Enabled: runtime.GOOS == "windows",
			Shell:   "powershell.exe",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

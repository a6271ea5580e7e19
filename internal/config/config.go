// Package config provides configuration management for the zoom-to-vimeo application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// maxAccounts caps the credential pool at the lettered range A..Z.
const maxAccounts = 26

// Token exchange modes for AccountConfig.Auth
const (
	AuthBasic = "basic"
	AuthJWT   = "jwt"
)

// AccountConfig holds the credentials of a single Zoom Server-to-Server OAuth app.
// Accounts are probed in the order they are configured.
type AccountConfig struct {
	Name         string `yaml:"name" json:"name"`
	AccountID    string `yaml:"account_id" json:"account_id"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	// Auth selects the token exchange mode: "basic" (default) or "jwt".
	Auth string `yaml:"auth" json:"auth"`
}

// ZoomConfig holds Zoom API settings and the ordered account pool
type ZoomConfig struct {
	Accounts []AccountConfig `yaml:"accounts" json:"accounts"`
	BaseURL  string          `yaml:"base_url" json:"base_url"`
	TokenURL string          `yaml:"token_url" json:"token_url"`
}

// VimeoConfig holds Vimeo API authentication and settings
type VimeoConfig struct {
	AccessToken string `yaml:"access_token" json:"access_token"`
	BaseURL     string `yaml:"base_url" json:"base_url"`
}

// WorksheetConfig holds settings for the meetings worksheet
type WorksheetConfig struct {
	File  string `yaml:"file" json:"file"`
	Watch bool   `yaml:"watch" json:"watch"`
}

// DownloadConfig holds download-related settings
type DownloadConfig struct {
	OutputDir      string `yaml:"output_dir" json:"output_dir"`
	Workers        int    `yaml:"workers" json:"workers"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// TimeoutDuration returns the timeout as a time.Duration
func (d DownloadConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// UploadConfig holds upload-related settings
type UploadConfig struct {
	Workers        int `yaml:"workers" json:"workers"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// TimeoutDuration returns the timeout as a time.Duration
func (u UploadConfig) TimeoutDuration() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	File        string `yaml:"file" json:"file"`
	Console     bool   `yaml:"console" json:"console"`
	JSONFormat  bool   `yaml:"json_format" json:"json_format"`
	SuccessFile string `yaml:"success_file" json:"success_file"`
	FailureFile string `yaml:"failure_file" json:"failure_file"`
}

// Config represents the complete application configuration
type Config struct {
	Zoom      ZoomConfig      `yaml:"zoom" json:"zoom"`
	Vimeo     VimeoConfig     `yaml:"vimeo" json:"vimeo"`
	Worksheet WorksheetConfig `yaml:"worksheet" json:"worksheet"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Upload    UploadConfig    `yaml:"upload" json:"upload"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// LoadConfig loads configuration from a YAML file with defaults and environment
// variable overrides. A missing config file is not an error: the full account
// pool and the Vimeo token can be supplied via the environment (or a .env file
// in the working directory) alone.
func LoadConfig(configPath string) (*Config, error) {
	// Best-effort .env load, matching the original deployment workflow.
	_ = godotenv.Load()

	config := &Config{}

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	config.setDefaults()
	config.loadFromEnvironment()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func (c *Config) loadFromFile(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// setDefaults applies default values for missing configuration
func (c *Config) setDefaults() {
	if c.Zoom.BaseURL == "" {
		c.Zoom.BaseURL = "https://api.zoom.us/v2"
	}
	if c.Zoom.TokenURL == "" {
		c.Zoom.TokenURL = "https://zoom.us/oauth/token"
	}

	if c.Vimeo.BaseURL == "" {
		c.Vimeo.BaseURL = "https://api.vimeo.com"
	}

	if c.Worksheet.File == "" {
		c.Worksheet.File = "./meetings.csv"
	}

	if c.Download.OutputDir == "" {
		c.Download.OutputDir = "./zoom_downloads"
	}
	if c.Download.Workers == 0 {
		c.Download.Workers = 5
	}
	if c.Download.TimeoutSeconds == 0 {
		c.Download.TimeoutSeconds = 300
	}

	if c.Upload.Workers == 0 {
		c.Upload.Workers = 3
	}
	if c.Upload.TimeoutSeconds == 0 {
		c.Upload.TimeoutSeconds = 600
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.SuccessFile == "" {
		c.Logging.SuccessFile = "./vimeo_success.log"
	}
	if c.Logging.FailureFile == "" {
		c.Logging.FailureFile = "./vimeo_failure.log"
	}
	// Console defaults to true (if not explicitly configured)
	// Note: This will always set to true, override in YAML if false is desired
	c.Logging.Console = true
}

// loadFromEnvironment overrides configuration with environment variables.
// Lettered account variables (ZOOM_ACCOUNT_A_ACCOUNT_ID, ...) are honored for
// parity with the original deployment: scanning stops at the first letter with
// incomplete credentials, and complete entries replace or extend the
// configured pool by name.
func (c *Config) loadFromEnvironment() {
	if val := os.Getenv("ZOOM_BASE_URL"); val != "" {
		c.Zoom.BaseURL = val
	}
	if val := os.Getenv("ZOOM_TOKEN_URL"); val != "" {
		c.Zoom.TokenURL = val
	}
	if val := os.Getenv("VIMEO_ACCESS_TOKEN"); val != "" {
		c.Vimeo.AccessToken = val
	}
	if val := os.Getenv("MEETINGS_CSV_FILE"); val != "" {
		c.Worksheet.File = val
	}
	if val := os.Getenv("DOWNLOAD_OUTPUT_DIR"); val != "" {
		c.Download.OutputDir = val
	}

	for i := 0; i < maxAccounts; i++ {
		letter := string(rune('A' + i))
		prefix := "ZOOM_ACCOUNT_" + letter

		accountID := os.Getenv(prefix + "_ACCOUNT_ID")
		clientID := os.Getenv(prefix + "_CLIENT_ID")
		clientSecret := os.Getenv(prefix + "_CLIENT_SECRET")

		if accountID == "" || clientID == "" || clientSecret == "" {
			break
		}

		c.upsertAccount(AccountConfig{
			Name:         "Account_" + letter,
			AccountID:    accountID,
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})
	}
}

// upsertAccount replaces an account with the same name or appends a new one
func (c *Config) upsertAccount(account AccountConfig) {
	for i, existing := range c.Zoom.Accounts {
		if existing.Name == account.Name {
			account.Auth = existing.Auth
			c.Zoom.Accounts[i] = account
			return
		}
	}
	c.Zoom.Accounts = append(c.Zoom.Accounts, account)
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	if len(c.Zoom.Accounts) == 0 {
		return fmt.Errorf("zoom.accounts is required: configure at least one account or set ZOOM_ACCOUNT_A_* environment variables")
	}
	if len(c.Zoom.Accounts) > maxAccounts {
		return fmt.Errorf("zoom.accounts must not exceed %d entries", maxAccounts)
	}

	for i, account := range c.Zoom.Accounts {
		if account.AccountID == "" {
			return fmt.Errorf("zoom.accounts[%d].account_id is required", i)
		}
		if account.ClientID == "" {
			return fmt.Errorf("zoom.accounts[%d].client_id is required", i)
		}
		if account.ClientSecret == "" {
			return fmt.Errorf("zoom.accounts[%d].client_secret is required", i)
		}
		switch strings.ToLower(account.Auth) {
		case "", "basic", "jwt":
		default:
			return fmt.Errorf("zoom.accounts[%d].auth must be basic or jwt", i)
		}
	}

	if c.Worksheet.File == "" {
		return fmt.Errorf("worksheet.file is required")
	}

	if c.Download.Workers < 1 || c.Download.Workers > 10 {
		return fmt.Errorf("download.workers must be between 1 and 10")
	}
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("download.timeout_seconds must be greater than 0")
	}
	if c.Upload.Workers < 1 || c.Upload.Workers > 10 {
		return fmt.Errorf("upload.workers must be between 1 and 10")
	}
	if c.Upload.TimeoutSeconds <= 0 {
		return fmt.Errorf("upload.timeout_seconds must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// RequireVimeo validates the settings needed by publish flows. It is a
// separate check so fetch-only runs do not need a Vimeo token.
func (c *Config) RequireVimeo() error {
	if c.Vimeo.AccessToken == "" {
		return fmt.Errorf("vimeo.access_token is required: set it in the config file or via VIMEO_ACCESS_TOKEN")
	}
	return nil
}

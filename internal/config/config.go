// Package config resolves the runtime configuration once per invocation.
// Sources, lowest to highest precedence: defaults, environment, YAML file,
// command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Sync modes
const (
	ModeDaily  = "daily"
	ModeWeekly = "weekly"
	ModeBoth   = "both"
)

const (
	DefaultConfigFile     = "config.yaml"
	DefaultDailyLogsPath  = "00_COCKPIT/Daily_Logs"
	DefaultWeeklyLogsPath = "00_COCKPIT/Weekly_Logs"
	DefaultLedgerPath     = "./data/rizesync.db"

	redacted = "********"
)

type Config struct {
	// Vault layout
	VaultPath      string `yaml:"vault_path" validate:"required"`
	DailyLogsPath  string `yaml:"daily_logs_path" validate:"required"`
	WeeklyLogsPath string `yaml:"weekly_logs_path" validate:"required"`
	DaysLookback   int    `yaml:"default_days_lookback" validate:"gte=0,lte=366"`
	Mode           string `yaml:"mode" validate:"oneof=daily weekly both"`

	// Rize API
	RizeAPIKey  string        `yaml:"rize_api_key" validate:"required"`
	RizeAPIURL  string        `yaml:"rize_api_url" validate:"omitempty,url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Sync ledger; empty disables it
	LedgerPath string `yaml:"ledger_path"`

	// AMQP events; empty URL disables them
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets export; empty spreadsheet id disables it
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"`
	GoogleSheetName          string `yaml:"google_sheet_name"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"`
	GoogleServiceAccountJSON string `yaml:"-"`
	GoogleOAuthClientFile    string `yaml:"google_oauth_client_file"`
	GoogleOAuthTokenFile     string `yaml:"google_oauth_token_file"`

	// Watch mode
	WatchInterval time.Duration `yaml:"watch_interval"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// problems found while reading sources, reported by Validate
	problems []string
}

// Defaults returns the configuration used when no source sets a value.
func Defaults() *Config {
	return &Config{
		DailyLogsPath:   DefaultDailyLogsPath,
		WeeklyLogsPath:  DefaultWeeklyLogsPath,
		Mode:            ModeDaily,
		HTTPTimeout:     30 * time.Second,
		LedgerPath:      DefaultLedgerPath,
		AMQPExchange:    "rizesync",
		AMQPQueue:       "notes_synced",
		GoogleSheetName: "Rize",
		WatchInterval:   time.Hour,
		LogLevel:        "info",
	}
}

// Overrides are explicit command-line values. Nil fields were not given.
type Overrides struct {
	VaultPath *string
	Days      *int
	Mode      *string
	Weekly    bool
}

// Load resolves defaults, then the environment, then the YAML file at path.
// A missing file is ignored unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Defaults()
	cfg.applyEnv()
	if err := cfg.applyFile(path, required); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply layers command-line overrides on top of everything else. The weekly
// switch selects weekly mode unless a mode was given explicitly.
func (c *Config) Apply(o Overrides) {
	if o.VaultPath != nil {
		c.VaultPath = *o.VaultPath
	}
	if o.Days != nil {
		c.DaysLookback = *o.Days
	}
	switch {
	case o.Mode != nil:
		c.Mode = *o.Mode
	case o.Weekly:
		c.Mode = ModeWeekly
	}
}

func (c *Config) applyEnv() {
	c.VaultPath = getEnv("OBSIDIAN_VAULT_PATH", c.VaultPath)
	c.RizeAPIKey = getEnv("RIZE_API_KEY", c.RizeAPIKey)
	c.RizeAPIURL = getEnv("RIZE_API_URL", c.RizeAPIURL)

	c.DailyLogsPath = getEnv("RIZESYNC_DAILY_LOGS_PATH", c.DailyLogsPath)
	c.WeeklyLogsPath = getEnv("RIZESYNC_WEEKLY_LOGS_PATH", c.WeeklyLogsPath)
	c.DaysLookback = c.getEnvInt("RIZESYNC_DAYS_LOOKBACK", c.DaysLookback)
	c.Mode = getEnv("RIZESYNC_MODE", c.Mode)
	c.HTTPTimeout = c.getEnvDuration("RIZESYNC_HTTP_TIMEOUT", c.HTTPTimeout)
	c.WatchInterval = c.getEnvDuration("RIZESYNC_WATCH_INTERVAL", c.WatchInterval)
	c.LogLevel = getEnv("RIZESYNC_LOG_LEVEL", c.LogLevel)
	if v, ok := os.LookupEnv("RIZESYNC_LEDGER_PATH"); ok {
		c.LedgerPath = v
	}

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", c.GoogleSheetName)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE",
		getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleServiceAccountFile))
	c.GoogleOAuthClientFile = getEnv("GOOGLE_OAUTH_CLIENT_FILE", c.GoogleOAuthClientFile)
	c.GoogleOAuthTokenFile = getEnv("GOOGLE_OAUTH_TOKEN_FILE", c.GoogleOAuthTokenFile)
}

// applyFile decodes the YAML file over c; keys absent from the file keep
// their current value.
func (c *Config) applyFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.problems...)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if c.HTTPTimeout < time.Second || c.HTTPTimeout > 5*time.Minute {
		problems = append(problems, fmt.Sprintf("invalid http_timeout %v: must be between 1s and 5m", c.HTTPTimeout))
	}
	if c.WatchInterval < time.Minute || c.WatchInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid watch_interval %v: must be between 1m and 24h", c.WatchInterval))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
		hasOAuth := c.GoogleOAuthClientFile != "" && c.GoogleOAuthTokenFile != ""
		if !hasServiceAccount && !hasOAuth {
			problems = append(problems, "Google export needs a service account or both GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE")
		}
		for _, f := range []string{c.GoogleServiceAccountFile, c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
				problems = append(problems, fmt.Sprintf("Google credentials file does not exist: %s", f))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("invalid %s %v: must be between 0 and 366", fe.Field(), fe.Value())
	case "url":
		return fmt.Sprintf("invalid %s '%v': must be a URL", fe.Field(), fe.Value())
	}
	return fmt.Sprintf("invalid %s: failed %s", fe.Field(), fe.Tag())
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	out.problems = nil
	if out.RizeAPIKey != "" {
		out.RizeAPIKey = redacted
	}
	if out.GoogleServiceAccountJSON != "" {
		out.GoogleServiceAccountJSON = redacted
	}
	if u, err := url.Parse(out.AMQPURL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
			out.AMQPURL = u.String()
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
		return defaultValue
	}
	return d
}

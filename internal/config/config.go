package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "anyumarket/internal/errors"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "ANYU"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Search    SearchConfig    `yaml:"search" envconfig:"SEARCH"`
	History   HistoryConfig   `yaml:"history" envconfig:"HISTORY"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against RootDir, which defaults to the executable directory.
type PathsConfig struct {
	RootDir    string `yaml:"root_dir" envconfig:"ROOT_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// SearchConfig configures the web search capability used for collection
type SearchConfig struct {
	Command           string        `yaml:"command" envconfig:"COMMAND"`
	Args              []string      `yaml:"args" envconfig:"ARGS"`
	FixtureFile       string        `yaml:"fixture_file" envconfig:"FIXTURE_FILE"`
	ResultCount       int           `yaml:"result_count" envconfig:"RESULT_COUNT" validate:"min=1,max=50"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gte=0"`
	Burst             int           `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// HistoryConfig selects the history store backend
type HistoryConfig struct {
	Backend   string `yaml:"backend" envconfig:"BACKEND" validate:"oneof=json sqlite postgres"`
	DSN       string `yaml:"dsn" envconfig:"DSN" validate:"required_if=Backend postgres"`
	Retention int    `yaml:"retention" envconfig:"RETENTION" validate:"min=1"`
}

// ReportConfig contains weekly report settings
type ReportConfig struct {
	Title        string `yaml:"title" envconfig:"TITLE" validate:"required"`
	Organisation string `yaml:"organisation" envconfig:"ORGANISATION" validate:"required"`
	CatalogLimit int    `yaml:"catalog_limit" envconfig:"CATALOG_LIMIT" validate:"min=1"`
	Seed         int64  `yaml:"seed" envconfig:"SEED"`
}

// ScheduleConfig configures the weekly report trigger
type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"ENABLED"`
	Weekday    string `yaml:"weekday" envconfig:"WEEKDAY" validate:"oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	At         string `yaml:"at" envconfig:"AT" validate:"datetime=15:04"`
	RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

// TelemetryConfig contains OpenTelemetry settings
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load loads configuration from defaults, config file and environment
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration using the given YAML file. An empty path
// skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate normalises and validates the configuration
func (c *Config) validate() error {
	// JSON is the only supported log format
	c.Logging.Format = "json"
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("invalid configuration", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Search: SearchConfig{
			Command:           "coze-coding-ai",
			ResultCount:       5,
			RequestsPerSecond: 2,
			Burst:             1,
			Timeout:           10 * time.Minute,
		},
		History: HistoryConfig{
			Backend:   "json",
			Retention: 60,
		},
		Report: ReportConfig{
			Title:        "安佑预混料市场周报",
			Organisation: "安佑心科技",
			CatalogLimit: 10,
			Seed:         42,
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Weekday: "Sunday",
			At:      "12:00",
		},
		Telemetry: TelemetryConfig{
			Environment:    "production",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

// ScheduleWeekday parses the configured weekday.
func (c ScheduleConfig) ScheduleWeekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == c.Weekday {
			return d
		}
	}
	return time.Sunday
}

// ScheduleClock returns the configured hour and minute.
func (c ScheduleConfig) ScheduleClock() (hour, minute int) {
	t, err := time.Parse("15:04", c.At)
	if err != nil {
		return 12, 0
	}
	return t.Hour(), t.Minute()
}

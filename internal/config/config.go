package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "ptbxl/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DatasetConfig locates a PTB-XL release on disk
type DatasetConfig struct {
	Root           string `yaml:"root" envconfig:"ROOT" validate:"required"`
	DatabaseFile   string `yaml:"database_file" envconfig:"DATABASE_FILE" validate:"required"`
	StatementsFile string `yaml:"statements_file" envconfig:"STATEMENTS_FILE" validate:"required"`
	SamplingRate   int    `yaml:"sampling_rate" envconfig:"SAMPLING_RATE" validate:"oneof=100 500"`
}

// ProcessingConfig controls what a preprocessing run produces
type ProcessingConfig struct {
	OutputPath      string   `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	SummaryPath     string   `yaml:"summary_path" envconfig:"SUMMARY_PATH"`
	Workers         int      `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	FeatureColumns  []string `yaml:"feature_columns" envconfig:"FEATURE_COLUMNS" validate:"min=1,dive,oneof=age sex height weight"`
	DropUnlabeled   bool     `yaml:"drop_unlabeled" envconfig:"DROP_UNLABELED"`
	VerifyChecksums bool     `yaml:"verify_checksums" envconfig:"VERIFY_CHECKSUMS"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	Tracing     bool   `yaml:"tracing" envconfig:"TRACING"`
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the environment, in that order. An empty configFile
// falls back to PTBXL_CONFIG and then to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, apperrors.NewConfigError("failed to load .env", err)
	}

	// Fields without a matching variable are left as they are.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv exports variables from a .env file without overriding ones
// already present in the environment
func loadDotEnv(filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return nil
	}
	return godotenv.Load(filePath)
}

// Validate checks the configuration against its validate tags
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return apperrors.NewConfigError("config validation failed", err).
				WithContext("fields", strings.Join(fields, ", "))
		}
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// normalize applies the fixed logging policy: JSON, with a file path when
// the output needs one
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" && c.Logging.Output != "console" {
		c.Logging.FilePath = "logs/ptbxl.log"
	}
	for i, col := range c.Processing.FeatureColumns {
		c.Processing.FeatureColumns[i] = strings.TrimSpace(strings.ToLower(col))
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
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

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "",
		},
		Dataset: DatasetConfig{
			Root:           "data/ptbxl",
			DatabaseFile:   DefaultDatabaseFile,
			StatementsFile: DefaultStatementsFile,
			SamplingRate:   SamplingRateLow,
		},
		Processing: ProcessingConfig{
			OutputPath:     "data/processed/" + DefaultOutputFile,
			Workers:        1,
			FeatureColumns: []string{"age", "sex"},
		},
	}
}

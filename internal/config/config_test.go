package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ptbxl/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "data/ptbxl", cfg.Dataset.Root)
				assert.Equal(t, DefaultDatabaseFile, cfg.Dataset.DatabaseFile)
				assert.Equal(t, DefaultStatementsFile, cfg.Dataset.StatementsFile)
				assert.Equal(t, 100, cfg.Dataset.SamplingRate)
				assert.Equal(t, 1, cfg.Processing.Workers)
				assert.Equal(t, []string{"age", "sex"}, cfg.Processing.FeatureColumns)
				assert.False(t, cfg.Processing.DropUnlabeled)
				assert.False(t, cfg.Telemetry.Tracing)
			},
		},
		{
			name: "env overrides defaults",
			env: map[string]string{
				"PTBXL_DATASET_ROOT":               "/srv/ptb-xl",
				"PTBXL_DATASET_SAMPLING_RATE":      "500",
				"PTBXL_PROCESSING_WORKERS":         "4",
				"PTBXL_PROCESSING_FEATURE_COLUMNS": "age,sex,height",
				"PTBXL_LOGGING_LEVEL":              "DEBUG",
				"PTBXL_TELEMETRY_TRACING":          "true",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/srv/ptb-xl", cfg.Dataset.Root)
				assert.Equal(t, 500, cfg.Dataset.SamplingRate)
				assert.Equal(t, 4, cfg.Processing.Workers)
				assert.Equal(t, []string{"age", "sex", "height"}, cfg.Processing.FeatureColumns)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.True(t, cfg.Telemetry.Tracing)
			},
		},
		{
			name: "file overrides defaults",
			file: `
dataset:
  root: /mnt/ptbxl
  sampling_rate: 500
processing:
  output_path: out/processed.csv
  drop_unlabeled: true
logging:
  output: both
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/mnt/ptbxl", cfg.Dataset.Root)
				assert.Equal(t, 500, cfg.Dataset.SamplingRate)
				assert.Equal(t, "out/processed.csv", cfg.Processing.OutputPath)
				assert.True(t, cfg.Processing.DropUnlabeled)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "logs/ptbxl.log", cfg.Logging.FilePath)
				// untouched keys keep their defaults
				assert.Equal(t, DefaultDatabaseFile, cfg.Dataset.DatabaseFile)
			},
		},
		{
			name: "env wins over file",
			file: `
dataset:
  sampling_rate: 500
`,
			env: map[string]string{"PTBXL_DATASET_SAMPLING_RATE": "100"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.Dataset.SamplingRate)
			},
		},
		{
			name:    "invalid sampling rate",
			env:     map[string]string{"PTBXL_DATASET_SAMPLING_RATE": "250"},
			wantErr: true,
		},
		{
			name:    "unknown feature column",
			env:     map[string]string{"PTBXL_PROCESSING_FEATURE_COLUMNS": "age,bmi"},
			wantErr: true,
		},
		{
			name:    "zero workers",
			env:     map[string]string{"PTBXL_PROCESSING_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "dataset: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var configFile string
			if tt.file != "" {
				configFile = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(configFile)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	path := writeConfigFile(t, "dataset:\n  root: /from/env/file\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env/file", cfg.Dataset.Root)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestDatasetPaths(t *testing.T) {
	d := DatasetConfig{
		Root:           "/data/ptbxl",
		DatabaseFile:   "ptbxl_database.csv",
		StatementsFile: "/elsewhere/scp_statements.csv",
	}
	p := d.Paths()

	assert.Equal(t, filepath.Join("/data/ptbxl", "ptbxl_database.csv"), p.Database)
	assert.Equal(t, "/elsewhere/scp_statements.csv", p.Statements)
	assert.Equal(t, filepath.Join("/data/ptbxl", "records100/00000/00001_lr"), p.RecordPath("records100/00000/00001_lr"))
}

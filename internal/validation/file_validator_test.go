package validation

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ptbxl/internal/errors"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name            string
		setupFunc       func(t *testing.T) string
		requiredPattern string
		wantType        apperrors.ErrorType
	}{
		{
			name: "dataset root with record directories",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "records100", "00000"), 0o755))
				return dir
			},
			requiredPattern: "records*",
		},
		{
			name: "no pattern",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "nothing matches pattern",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			requiredPattern: "records*",
			wantType:        apperrors.ErrTypeNotFound,
		},
		{
			name: "non-existent directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "ptbxl_database.csv")
				require.NoError(t, os.WriteFile(file, []byte("ecg_id\n"), 0o644))
				return file
			},
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(slog.Default())
			err := v.ValidateInputDirectory(tt.setupFunc(t), tt.requiredPattern)

			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "processed", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	err = v.ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateOutputFile(filepath.Join(dir, "out", "processed.csv")))

	err := v.ValidateOutputFile(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()
	file := filepath.Join(dir, "scp_statements.csv")
	require.NoError(t, os.WriteFile(file, []byte(",description\n"), 0o644))

	assert.NoError(t, v.ValidateFile(file))

	err := v.ValidateFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  bool
	}{
		{"csv", "ptbxl_database.csv", false},
		{"upper case extension", "PTBXL_DATABASE.CSV", false},
		{"wrong extension", "ptbxl_database.xlsx", true},
		{"no extension", "ptbxl_database", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.fileName)
			require.NoError(t, os.WriteFile(path, []byte("ecg_id\n1\n"), 0o644))

			err := NewFileValidator(nil).ValidateCSVFile(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "not a CSV file")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

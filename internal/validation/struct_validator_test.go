package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ptbxl/internal/errors"
)

type runOptions struct {
	Input    string   `validate:"required"`
	Rate     int      `validate:"oneof=100 500"`
	Workers  int      `validate:"min=0,max=64"`
	Features []string `validate:"dive,oneof=age sex"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		opts       runOptions
		wantFields []string
	}{
		{
			name: "valid",
			opts: runOptions{Input: "db.csv", Rate: 100, Workers: 4, Features: []string{"age"}},
		},
		{
			name:       "missing input",
			opts:       runOptions{Rate: 500},
			wantFields: []string{"runOptions.Input (required)"},
		},
		{
			name:       "bad rate and feature",
			opts:       runOptions{Input: "db.csv", Rate: 250, Features: []string{"bmi"}},
			wantFields: []string{"runOptions.Rate (oneof=100 500)", "runOptions.Features[0] (oneof=age sex)"},
		},
		{
			name:       "too many workers",
			opts:       runOptions{Input: "db.csv", Rate: 100, Workers: 65},
			wantFields: []string{"runOptions.Workers (max=64)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.opts)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
			assert.Equal(t, tt.wantFields, appErr.Context["fields"])
		})
	}
}

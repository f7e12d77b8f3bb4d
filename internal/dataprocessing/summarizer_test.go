package dataprocessing

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/shared/testutil"
)

func TestSummarizer_Records(t *testing.T) {
	s := NewSummarizer(nil, nil)
	counts := []ClassCount{
		{Split: SplitTrain, Class: "", Count: 1, Total: 3},
		{Split: SplitTrain, Class: "NORM", Count: 2, Total: 3},
		{Split: SplitTest, Class: "MI", Count: 0, Total: 0},
	}

	want := [][]string{
		{"train", "", "1", "3", "0.3333"},
		{"train", "NORM", "2", "3", "0.6667"},
		{"test", "MI", "0", "0", "0.0000"},
	}
	assert.Equal(t, want, s.Records(counts))
}

func TestSummarizer_WriteSummary(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	s := NewSummarizer(logger, nil)

	path := filepath.Join(t.TempDir(), "reports", "summary.csv")
	counts := []ClassCount{{Split: SplitValidation, Class: "MI", Count: 1, Total: 1}}
	require.NoError(t, s.WriteSummary(path, counts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{SummaryHeaders, {"validation", "MI", "1", "1", "1.0000"}}, rows)

	assert.True(t, handler.ContainsMessage("Class distribution summary written"))
}

func TestSummarizer_WriteSummaryEmptyPath(t *testing.T) {
	err := NewSummarizer(nil, nil).WriteSummary("", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

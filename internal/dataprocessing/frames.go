package dataprocessing

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	apperrors "ptbxl/internal/errors"
	"ptbxl/internal/ptbxl"
)

// Merged table columns added by label aggregation
const (
	ColDiagnosticSuperclass = "diagnostic_superclass"
	ColDiagnosticSubclass   = "diagnostic_subclass"
)

// MergedColumns is the column order of the merged table
var MergedColumns = []string{
	ptbxl.ColECGID, ptbxl.ColPatientID, ptbxl.ColAge, ptbxl.ColSex, ptbxl.ColHeight, ptbxl.ColWeight,
	ptbxl.ColStratFold, ptbxl.ColFilenameLR, ptbxl.ColFilenameHR, ptbxl.ColSCPCodes,
	ColDiagnosticSuperclass, ColDiagnosticSubclass,
}

// FeatureFrame builds the feature table from records
func FeatureFrame(records []ptbxl.Record, columns []string) (dataframe.DataFrame, error) {
	cols := make([]series.Series, 0, len(columns))
	for _, name := range columns {
		values, err := featureValues(records, name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		cols = append(cols, series.New(values, series.Float, name))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.NewValidationError("build feature table", df.Err)
	}
	return df, nil
}

func featureValues(records []ptbxl.Record, name string) ([]float64, error) {
	values := make([]float64, len(records))
	for i, r := range records {
		switch name {
		case FeatureAge:
			values[i] = r.Age
		case FeatureSex:
			values[i] = r.Sex
		case FeatureHeight:
			values[i] = r.Height
		case FeatureWeight:
			values[i] = r.Weight
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown feature column %q", name), nil)
		}
	}
	return values, nil
}

// MergedFrame joins records with their labels. labels must be aligned with
// records.
func MergedFrame(records []ptbxl.Record, labels []ptbxl.Annotation) (dataframe.DataFrame, error) {
	if len(records) != len(labels) {
		return dataframe.DataFrame{}, apperrors.NewShapeError(
			fmt.Sprintf("%d records but %d label rows", len(records), len(labels)))
	}

	n := len(records)
	var (
		ids      = make([]int, n)
		patients = make([]float64, n)
		ages     = make([]float64, n)
		sexes    = make([]float64, n)
		heights  = make([]float64, n)
		weights  = make([]float64, n)
		folds    = make([]int, n)
		lr       = make([]string, n)
		hr       = make([]string, n)
		scp      = make([]string, n)
		supers   = make([]string, n)
		subs     = make([]string, n)
	)
	for i, r := range records {
		ids[i] = r.ECGID
		patients[i] = r.PatientID
		ages[i] = r.Age
		sexes[i] = r.Sex
		heights[i] = r.Height
		weights[i] = r.Weight
		folds[i] = r.StratFold
		lr[i] = r.FilenameLR
		hr[i] = r.FilenameHR
		scp[i] = r.SCPCodesRaw
		if scp[i] == "" {
			scp[i] = ptbxl.FormatSCPCodes(r.SCPCodes)
		}
		supers[i] = ptbxl.JoinClasses(labels[i].Superclasses)
		subs[i] = ptbxl.JoinClasses(labels[i].Subclasses)
	}

	df := dataframe.New(
		series.New(ids, series.Int, ptbxl.ColECGID),
		series.New(patients, series.Float, ptbxl.ColPatientID),
		series.New(ages, series.Float, ptbxl.ColAge),
		series.New(sexes, series.Float, ptbxl.ColSex),
		series.New(heights, series.Float, ptbxl.ColHeight),
		series.New(weights, series.Float, ptbxl.ColWeight),
		series.New(folds, series.Int, ptbxl.ColStratFold),
		series.New(lr, series.String, ptbxl.ColFilenameLR),
		series.New(hr, series.String, ptbxl.ColFilenameHR),
		series.New(scp, series.String, ptbxl.ColSCPCodes),
		series.New(supers, series.String, ColDiagnosticSuperclass),
		series.New(subs, series.String, ColDiagnosticSubclass),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.NewValidationError("build merged table", df.Err)
	}
	return df, nil
}

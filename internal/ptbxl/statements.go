package ptbxl

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	apperrors "ptbxl/internal/errors"
)

// Statement table column names. The code column has no header.
const (
	ColDescription        = "description"
	ColDiagnostic         = "diagnostic"
	ColForm               = "form"
	ColRhythm             = "rhythm"
	ColDiagnosticClass    = "diagnostic_class"
	ColDiagnosticSubclass = "diagnostic_subclass"
	ColStatementCategory  = "Statement Category"
)

// RequiredStatementColumns must be present in scp_statements.csv
var RequiredStatementColumns = []string{ColDiagnostic, ColDiagnosticClass, ColDiagnosticSubclass}

// Statement is one row of scp_statements.csv
type Statement struct {
	Code               string
	Description        string
	Diagnostic         bool
	Form               bool
	Rhythm             bool
	DiagnosticClass    string
	DiagnosticSubclass string
	Category           string
}

// Statements indexes statements by code
type Statements map[string]Statement

// Codes returns the statement codes in sorted order
func (s Statements) Codes() []string {
	codes := make([]string, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Diagnostic returns only the statements flagged as diagnostic
func (s Statements) Diagnostic() Statements {
	out := make(Statements)
	for code, st := range s {
		if st.Diagnostic {
			out[code] = st
		}
	}
	return out
}

// Superclasses returns the distinct diagnostic classes in sorted order
func (s Statements) Superclasses() []string {
	seen := make(map[string]struct{})
	for _, st := range s {
		if st.Diagnostic && st.DiagnosticClass != "" {
			seen[st.DiagnosticClass] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// LoadStatements reads scp_statements.csv from path
func LoadStatements(path string) (Statements, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open statements file", err).WithContext("path", path)
	}
	defer f.Close()

	st, err := ReadStatements(f)
	if err != nil {
		return nil, withContext(err, "path", path)
	}
	return st, nil
}

// ReadStatements parses the SCP statement table from r. The first column
// holds the statement code.
func ReadStatements(r io.Reader) (Statements, error) {
	rows, cols, err := readTable(r, RequiredStatementColumns)
	if err != nil {
		return nil, err
	}

	out := make(Statements, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			return nil, apperrors.NewParsingError("parse statements row",
				fmt.Errorf("empty statement code")).WithContext("line", i+2)
		}
		flags := make(map[string]bool, 3)
		for _, name := range []string{ColDiagnostic, ColForm, ColRhythm} {
			v, err := parseFloat(cols.get(row, name))
			if err != nil {
				return nil, apperrors.NewParsingError("parse statements row",
					fmt.Errorf("%s: %w", name, err)).WithContext("line", i+2)
			}
			flags[name] = v == 1
		}
		out[code] = Statement{
			Code:               code,
			Description:        cols.get(row, ColDescription),
			Diagnostic:         flags[ColDiagnostic],
			Form:               flags[ColForm],
			Rhythm:             flags[ColRhythm],
			DiagnosticClass:    cols.get(row, ColDiagnosticClass),
			DiagnosticSubclass: cols.get(row, ColDiagnosticSubclass),
			Category:           cols.get(row, ColStatementCategory),
		}
	}
	return out, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

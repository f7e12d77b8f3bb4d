package ptbxl

import "strings"

// Annotation is the label structure of one record: its SCP codes and the
// diagnostic classes they map to
type Annotation struct {
	ECGID        int
	Codes        map[string]float64
	Superclasses []string
	Subclasses   []string
}

// Labeled reports whether the record has at least one diagnostic superclass
func (a Annotation) Labeled() bool {
	return len(a.Superclasses) > 0
}

// Annotate joins each record's SCP codes against the diagnostic statements.
// Codes that are not diagnostic statements are ignored; classes are sorted
// and distinct.
func Annotate(records []Record, statements Statements) []Annotation {
	diagnostic := statements.Diagnostic()
	out := make([]Annotation, len(records))
	for i, r := range records {
		supers := make(map[string]struct{})
		subs := make(map[string]struct{})
		for code := range r.SCPCodes {
			st, ok := diagnostic[code]
			if !ok {
				continue
			}
			if st.DiagnosticClass != "" {
				supers[st.DiagnosticClass] = struct{}{}
			}
			if st.DiagnosticSubclass != "" {
				subs[st.DiagnosticSubclass] = struct{}{}
			}
		}
		out[i] = Annotation{
			ECGID:        r.ECGID,
			Codes:        r.clone().SCPCodes,
			Superclasses: sortedKeys(supers),
			Subclasses:   sortedKeys(subs),
		}
	}
	return out
}

// JoinClasses renders classes as one cell, e.g. "MI|NORM"
func JoinClasses(classes []string) string {
	return strings.Join(classes, "|")
}

// SplitClasses is the inverse of JoinClasses
func SplitClasses(cell string) []string {
	if cell == "" {
		return []string{}
	}
	return strings.Split(cell, "|")
}

package ptbxl

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrInvalidSCPCodes marks an scp_codes cell that is not a dict literal of
// code to likelihood
var ErrInvalidSCPCodes = errors.New("invalid scp_codes literal")

// ParseSCPCodes parses an scp_codes cell such as {'NORM': 100.0, 'SR': 0.0}.
// The cell is read as a YAML flow mapping, so keys may use single or double
// quotes. An empty cell yields an empty map.
func ParseSCPCodes(s string) (map[string]float64, error) {
	s = strings.TrimSpace(s)
	codes := make(map[string]float64)
	if s == "" {
		return codes, nil
	}
	if !strings.HasPrefix(s, "{") {
		return nil, fmt.Errorf("%w: expected '{' in %q", ErrInvalidSCPCodes, s)
	}
	if err := yaml.Unmarshal([]byte(s), &codes); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSCPCodes, s, err)
	}
	if codes == nil {
		codes = make(map[string]float64)
	}
	return codes, nil
}

// FormatSCPCodes renders codes in the dict literal form ParseSCPCodes reads,
// ordered by descending likelihood then code
func FormatSCPCodes(codes map[string]float64) string {
	keys := make([]string, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if codes[keys[i]] != codes[keys[j]] {
			return codes[keys[i]] > codes[keys[j]]
		}
		return keys[i] < keys[j]
	})

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		v := strconv.FormatFloat(codes[k], 'f', -1, 64)
		if !strings.ContainsAny(v, ".eEn") {
			v += ".0"
		}
		fmt.Fprintf(&b, "'%s': %s", k, v)
	}
	b.WriteByte('}')
	return b.String()
}

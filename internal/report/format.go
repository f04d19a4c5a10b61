// Package report renders scores, gaps and classifications as tables, CSV,
// JSON or XLSX.
package report

import (
	"encoding/json"
	"io"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates s case-insensitively against the allowed formats.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(cases.Fold().String(strings.TrimSpace(s)))
	if slices.Contains(allowed, f) {
		return f, nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", eris.Errorf("report: unsupported format %q (want %s)", s, strings.Join(names, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode JSON")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// Package records moves activity lists in and out of the engine: CSV, JSON,
// YAML and HCL project files, computed CSV exports, and built-in samples.
//
// Importers never fail on a malformed record. The record is skipped and
// reported in the ImportReport; an error is returned only when the input as a
// whole cannot be read.
package records

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshharrison/netplanner/internal/activity"
)

// ErrParse is wrapped by every error returned for unreadable input.
var ErrParse = errors.New("parse error")

// RowError describes one skipped record. Line is the 1-based line (CSV,
// YAML, HCL) or item position (JSON) of the record.
type RowError struct {
	Line int    `json:"line"`
	Msg  string `json:"msg"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ImportReport is the outcome of an import.
type ImportReport struct {
	Activities []activity.Activity `json:"activities"`
	Skipped    int                 `json:"skipped"`
	Errors     []RowError          `json:"errors"`
}

func newReport() *ImportReport {
	return &ImportReport{Activities: []activity.Activity{}, Errors: []RowError{}}
}

func (r *ImportReport) skip(line int, format string, args ...any) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// Messages returns the skipped-record messages.
func (r *ImportReport) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

// LoadFile reads a project file, choosing the format from its extension.
func LoadFile(path string) (*ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes data in the format implied by name's extension.
func Parse(data []byte, name string) (*ImportReport, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ParseCSV(strings.NewReader(string(data)))
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(data, name)
	default:
		return nil, fmt.Errorf("%w: unsupported project file %q (want .csv, .json, .yaml or .hcl)", ErrParse, name)
	}
}

// splitPredecessors splits a predecessor field on ';' or ',', dropping blanks.
func splitPredecessors(field string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(field, func(r rune) bool { return r == ';' || r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

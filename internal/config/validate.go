// Package config provides configuration models and helpers for the pipeline.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"salesetl/internal/transformer"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "aggregate.keys[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if p.Contract != "" && p.Contract != "sales" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "contract",
			Message:  fmt.Sprintf("unknown contract %q", p.Contract),
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateFilter(p.Filter)...)
	issues = append(issues, validateAggregate(p.Aggregate)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime, p.Storage)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "http":
		if strings.TrimSpace(s.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.url",
				Message:  "http source requires a non-empty url",
			})
		} else if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.url",
				Message:  fmt.Sprintf("url %q must use http or https", s.URL),
			})
		}
		if s.HTTP.MaxRetries < 0 || s.HTTP.TimeoutSeconds < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http",
				Message:  "timeout_seconds and max_retries must not be negative",
			})
		}
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; want http or file", s.Kind),
		})
	}

	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is implemented", p.Kind),
		})
		return issues
	}
	if !p.Options.Bool("has_header", true) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.has_header",
			Message:  "the header row names the columns the contract is checked against; has_header must be true",
		})
	}
	if c := p.Options.String("comma", ","); len([]rune(c)) != 1 || c == "\"" || c == "\n" || c == "\r" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma %q must be a single rune other than quote or newline", c),
		})
	}

	return issues
}

func validateFilter(f Filter) []Issue {
	var issues []Issue

	if strings.TrimSpace(f.Column) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.column",
			Message:  "filter.column must not be empty",
		})
	}
	if _, err := transformer.ParseOp(f.Op); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.op",
			Message:  err.Error(),
		})
	}
	if len(f.Columns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.columns",
			Message:  "filter.columns must name at least one projected column",
		})
	}
	issues = append(issues, duplicates("filter.columns", f.Columns)...)

	return issues
}

func validateAggregate(a Aggregate) []Issue {
	var issues []Issue

	if len(a.Keys) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "aggregate.keys",
			Message:  "aggregate.keys must name at least one key column",
		})
	}
	issues = append(issues, duplicates("aggregate.keys", a.Keys)...)
	if strings.TrimSpace(a.Sum) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "aggregate.sum",
			Message:  "aggregate.sum must not be empty",
		})
	}
	for i, k := range a.Keys {
		if k == a.Sum {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("aggregate.keys[%d]", i),
				Message:  fmt.Sprintf("%q is both a key and the summed column", k),
			})
		}
	}

	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Grouped) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.grouped",
			Message:  "output.grouped must not be empty",
		})
	}
	seen := map[string]string{}
	for _, kv := range [][2]string{{"output.grouped", o.Grouped}, {"output.filtered", o.Filtered}, {"output.parquet", o.Parquet}} {
		if kv[1] == "" {
			continue
		}
		clean := filepath.Clean(kv[1])
		if prev, ok := seen[clean]; ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     kv[0],
				Message:  fmt.Sprintf("path %q is already used by %s", kv[1], prev),
			})
			continue
		}
		seen[clean] = kv[0]
	}

	return issues
}

// validateStorage validates storage configuration and DB settings. An empty
// kind disables the database sink.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return nil
	}

	known := map[string]struct{}{
		"postgres": {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}

	return issues
}

// validateRuntime flags batch sizes that would stall the DB load.
func validateRuntime(r RuntimeConfig, s Storage) []Issue {
	if s.Kind == "" || r.BatchSize > 0 {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "runtime.batch_size",
		Message:  fmt.Sprintf("batch_size=%d; the whole table will be loaded in one batch", r.BatchSize),
	}}
}

func duplicates(path string, names []string) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		if _, ok := seen[n]; ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s[%d]", path, i),
				Message:  fmt.Sprintf("duplicate column %q", n),
			})
		}
		seen[n] = struct{}{}
	}
	return issues
}

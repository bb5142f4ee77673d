// Package config defines the JSON-serializable configuration model for the
// sales pipeline. Default returns the built-in job; a pipeline file only needs
// to carry the fields it changes, since Load decodes on top of the defaults.
//
// Example (trimmed):
//
//	{
//	  "job":     "sales-nightly",
//	  "source":  { "kind": "http", "url": "https://example.com/sales.csv" },
//	  "filter":  { "column": "totalprofit", "op": "gt", "threshold": 250000 },
//	  "output":  { "grouped": "out/grouped_sales.csv", "parquet": "out/grouped_sales.parquet" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:sales.db", "table": "grouped_sales" } }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// DefaultSourceURL is the published sales extract the pipeline was built for.
const DefaultSourceURL = "https://raw.githubusercontent.com/gchandra10/filestorage/main/sales_100.csv"

// Pipeline describes one run of the sales job. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logs and metrics.
	Job string `json:"job"`

	// Source describes where the CSV comes from.
	Source Source `json:"source"`

	// Parser configures CSV decoding.
	Parser Parser `json:"parser"`

	// Contract names the expected column layout ("sales").
	Contract string `json:"contract"`

	Filter    Filter        `json:"filter"`
	Aggregate Aggregate     `json:"aggregate"`
	Output    Output        `json:"output"`
	Storage   Storage       `json:"storage"`
	Runtime   RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching for the optional database load.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "http" downloads URL into
	// CachePath, "file" reads File.Path as-is.
	Kind string `json:"kind"`

	URL string `json:"url"`

	// CachePath is where the download is stored and where a previous copy is
	// looked up when the download fails. Empty means derive from URL.
	CachePath string `json:"cache_path"`

	HTTP SourceHTTP `json:"http"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP tunes the download client. Zero values mean client defaults.
type SourceHTTP struct {
	TimeoutSeconds     int               `json:"timeout_seconds"`
	MaxRetries         int               `json:"max_retries"`
	InitialBackoffMS   int               `json:"initial_backoff_ms"`
	MaxBackoffMS       int               `json:"max_backoff_ms"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify"`
	Headers            map[string]string `json:"headers"`
}

// Parser selects how to parse the raw source into a table.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV: has_header (bool), comma (string), trim_space (bool),
	// lazy_quotes (bool).
	Options Options `json:"options"`
}

// Filter is the row predicate and projection of the filtered view.
type Filter struct {
	Column    string   `json:"column"`
	Op        string   `json:"op"`
	Threshold float64  `json:"threshold"`
	Columns   []string `json:"columns"`
}

// Aggregate is the grouped-sum view.
type Aggregate struct {
	Keys []string `json:"keys"`
	Sum  string   `json:"sum"`
	// Sort orders the grouped output by Keys instead of first occurrence.
	Sort bool `json:"sort"`
}

// Output lists the files written on success. Grouped is required; the others
// are skipped when empty.
type Output struct {
	Grouped  string `json:"grouped"`
	Filtered string `json:"filtered"`
	Parquet  string `json:"parquet"`
}

// Storage selects an optional database sink for the grouped table. An empty
// Kind disables it.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver-specific connection string.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`

	// AutoCreateTable creates the table from the grouped columns when missing.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Default returns the built-in sales job.
func Default() Pipeline {
	return Pipeline{
		Job:      "salesetl",
		Contract: "sales",
		Source: Source{
			Kind: "http",
			URL:  DefaultSourceURL,
		},
		Parser: Parser{
			Kind: "csv",
			Options: Options{
				"has_header": true,
				"comma":      ",",
				"trim_space": false,
			},
		},
		Filter: Filter{
			Column:    "totalprofit",
			Op:        "gt",
			Threshold: 500000,
			Columns:   []string{"region", "country", "totalprofit"},
		},
		Aggregate: Aggregate{
			Keys: []string{"region", "country"},
			Sum:  "totalprofit",
		},
		Output: Output{
			Grouped: "grouped_sales.csv",
		},
		Runtime: RuntimeConfig{BatchSize: 1000},
	}
}

// Decode overlays the JSON in b onto Default. Unknown fields are rejected so
// typos surface instead of silently keeping a default.
func Decode(b []byte) (Pipeline, error) {
	p := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode: %w", err)
	}
	return p, nil
}

// Load reads a pipeline file. An empty path returns Default.
func Load(path string) (Pipeline, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(b)
}

// Options is a small helper to fetch typed values from arbitrary JSON maps. It
// performs only minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON merges the decoded object into o, so a file that sets one
// parser option keeps the defaults for the rest. null leaves o as is.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		if *o == nil {
			*o = Options{}
		}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	merged := Options{}
	for k, v := range *o {
		merged[k] = v
	}
	for k, v := range tmp {
		merged[k] = v
	}
	*o = merged
	return nil
}

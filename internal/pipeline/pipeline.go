// Package pipeline runs the sales job end to end: acquire the extract, decode
// it, normalize and validate the columns, filter and aggregate, then persist
// the outputs. Every output is staged first and committed only when all steps
// have succeeded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/datasource"
	"salesetl/internal/datasource/file"
	"salesetl/internal/datasource/httpds"
	"salesetl/internal/export"
	"salesetl/internal/inspect"
	"salesetl/internal/metrics"
	csvcodec "salesetl/internal/parser/csv"
	"salesetl/internal/schema"
	"salesetl/internal/storage"
	"salesetl/internal/table"
	"salesetl/internal/transformer"
)

// Acquirer puts the resource at url on local disk. *datasource.Acquirer
// implements it.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (datasource.Acquired, error)
}

// RepositoryFactory opens the database sink. storage.New is the default.
type RepositoryFactory func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

// StepTiming is the wall time of one completed or failed step.
type StepTiming struct {
	Step     string
	Duration time.Duration
}

// Result summarizes a run.
type Result struct {
	// Source is the local file that was decoded.
	Source string
	// Stale reports that the download failed and a cached copy was used.
	Stale bool

	RowsRead     int
	FilteredRows int
	Groups       int
	// Loaded is the number of rows written to the database sink.
	Loaded int64

	// Outputs lists the committed files in staging order.
	Outputs []string
	Steps   []StepTiming
}

// Driver executes one configured pipeline.
type Driver struct {
	cfg      config.Pipeline
	acquirer Acquirer
	newRepo  RepositoryFactory
	inspect  io.Writer
	verbose  bool
}

type Option func(*Driver)

// WithAcquirer replaces the HTTP acquirer built from the source config.
func WithAcquirer(a Acquirer) Option { return func(d *Driver) { d.acquirer = a } }

// WithRepositoryFactory replaces storage.New.
func WithRepositoryFactory(f RepositoryFactory) Option { return func(d *Driver) { d.newRepo = f } }

// WithInspect prints shape, head rows and numeric summaries of the
// intermediate tables to w.
func WithInspect(w io.Writer) Option { return func(d *Driver) { d.inspect = w } }

// WithVerbose logs every successful step with its duration.
func WithVerbose(v bool) Option { return func(d *Driver) { d.verbose = v } }

// New validates cfg and returns a Driver. Validation warnings are logged;
// errors are returned joined.
func New(cfg config.Pipeline, opts ...Option) (*Driver, error) {
	var errs []error
	for _, iss := range config.ValidatePipeline(cfg) {
		if iss.Severity == config.SeverityError {
			errs = append(errs, fmt.Errorf("%s: %s", iss.Path, iss.Message))
			continue
		}
		log.Printf("config: %s: %s: %s", iss.Severity, iss.Path, iss.Message)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("pipeline: invalid config: %w", errors.Join(errs...))
	}

	d := &Driver{cfg: cfg, newRepo: storage.New}
	for _, o := range opts {
		o(d)
	}
	if d.acquirer == nil && cfg.Source.Kind == "http" {
		d.acquirer = NewAcquirer(cfg.Source)
	}
	return d, nil
}

// CachePath is where an http source is downloaded to. An explicit
// cache_path wins; otherwise the name is derived from the URL.
func CachePath(s config.Source) string {
	if s.CachePath != "" {
		return s.CachePath
	}
	return httpds.SafeFilenameFromURL(s.URL)
}

// NewAcquirer builds the retrying HTTP acquirer for s.
func NewAcquirer(s config.Source) *datasource.Acquirer {
	hdr := http.Header{}
	for k, v := range s.HTTP.Headers {
		hdr.Set(k, v)
	}
	client := httpds.NewClient(httpds.Config{
		Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
		MaxRetries:         s.HTTP.MaxRetries,
		InitialBackoff:     time.Duration(s.HTTP.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:         time.Duration(s.HTTP.MaxBackoffMS) * time.Millisecond,
		InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		BaseHeaders:        hdr,
	})
	return &datasource.Acquirer{Fetcher: client, CachePath: CachePath(s)}
}

// Run executes the pipeline once. The first failing step aborts the run and
// its error is returned wrapped with the step name; no output file is created
// or replaced in that case. A database load that succeeded before a later
// commit failure is not rolled back.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	var (
		res              Result
		tbl              *table.Table
		filtered, groups *table.Table
	)
	job := d.cfg.Job

	if err := d.step(&res, "acquire", func() error {
		return d.acquire(ctx, &res)
	}); err != nil {
		return res, err
	}

	if err := d.step(&res, "decode", func() error {
		var err error
		tbl, err = d.decode(ctx, res.Source)
		return err
	}); err != nil {
		return res, err
	}
	res.RowsRead = tbl.NumRows()
	metrics.RecordRows(job, metrics.RowsRead, res.RowsRead)

	if err := d.step(&res, "normalize", func() error {
		var err error
		tbl, err = schema.Normalize(tbl)
		return err
	}); err != nil {
		return res, err
	}

	if err := d.step(&res, "validate", func() error {
		return d.validate(tbl)
	}); err != nil {
		return res, err
	}

	if err := d.step(&res, "filter", func() error {
		var err error
		filtered, err = d.filter(tbl)
		return err
	}); err != nil {
		return res, err
	}
	res.FilteredRows = filtered.NumRows()
	metrics.RecordRows(job, metrics.RowsFiltered, res.FilteredRows)

	if err := d.step(&res, "aggregate", func() error {
		var err error
		groups, err = d.aggregator().Apply(tbl)
		return err
	}); err != nil {
		return res, err
	}
	res.Groups = groups.NumRows()
	metrics.RecordRows(job, metrics.RowsGroups, res.Groups)

	if d.inspect != nil {
		d.report(tbl, filtered, groups)
	}

	var batch export.Batch
	defer batch.Discard()

	if err := d.step(&res, "stage", func() error {
		return d.stage(&batch, filtered, groups)
	}); err != nil {
		return res, err
	}

	if d.cfg.Storage.Kind != "" {
		if err := d.step(&res, "load", func() error {
			return d.load(ctx, &res, groups)
		}); err != nil {
			return res, err
		}
	}

	if err := d.step(&res, "commit", batch.Commit); err != nil {
		return res, err
	}
	res.Outputs = batch.Paths()

	log.Printf("pipeline: job=%s rows=%d filtered=%d groups=%d outputs=%v stale=%t",
		job, res.RowsRead, res.FilteredRows, res.Groups, res.Outputs, res.Stale)
	return res, nil
}

// step times fn, records it and wraps its error with the step name.
func (d *Driver) step(res *Result, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	dur := time.Since(start)

	metrics.RecordStep(d.cfg.Job, name, err, dur)
	res.Steps = append(res.Steps, StepTiming{Step: name, Duration: dur})
	if err != nil {
		log.Printf("pipeline: step=%s failed after %s: %v", name, dur.Round(time.Millisecond), err)
		return fmt.Errorf("%s: %w", name, err)
	}
	if d.verbose {
		log.Printf("pipeline: step=%s took=%s", name, dur.Round(time.Microsecond))
	}
	return nil
}

func (d *Driver) acquire(ctx context.Context, res *Result) error {
	src := d.cfg.Source
	if src.Kind == "file" {
		res.Source = src.File.Path
		return nil
	}
	if d.acquirer == nil {
		return fmt.Errorf("no acquirer for source kind %q", src.Kind)
	}
	got, err := d.acquirer.Acquire(ctx, src.URL)
	if err != nil {
		return err
	}
	res.Source = got.Path
	if got.Stale != nil {
		res.Stale = true
		log.Printf("acquire: warning: continuing with cached copy: %v", got.Stale)
	}
	return nil
}

func (d *Driver) decode(ctx context.Context, path string) (*table.Table, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return csvcodec.Decode(ctx, rc, csvcodec.OptionsFrom(d.cfg.Parser.Options))
}

func (d *Driver) validate(t *table.Table) error {
	c := contractFor(d.cfg.Contract)
	if err := schema.Check(t.Names(), c); err != nil {
		return err
	}
	for _, w := range schema.TypeWarnings(t, c) {
		log.Printf("validate: warning: %s", w)
	}
	return nil
}

// contractFor maps the configured contract name onto its definition. Config
// validation rejects unknown names, so everything resolves to Sales.
func contractFor(string) schema.Contract { return schema.Sales }

func (d *Driver) filter(t table.Reader) (*table.Table, error) {
	f := d.cfg.Filter
	op, err := transformer.ParseOp(f.Op)
	if err != nil {
		return nil, err
	}
	return transformer.Filter{
		Predicate: transformer.Predicate{Column: f.Column, Op: op, Value: f.Threshold},
		Columns:   f.Columns,
	}.Apply(t)
}

func (d *Driver) aggregator() transformer.Chain {
	a := d.cfg.Aggregate
	chain := transformer.Chain{transformer.GroupSum{Keys: a.Keys, Value: a.Sum}}
	if a.Sort {
		chain = append(chain, transformer.Sort{Keys: a.Keys})
	}
	return chain
}

func (d *Driver) stage(b *export.Batch, filtered, groups table.Reader) error {
	out := d.cfg.Output
	if err := b.Stage(out.Grouped, export.CSV(groups)); err != nil {
		return err
	}
	if out.Filtered != "" {
		if err := b.Stage(out.Filtered, export.CSV(filtered)); err != nil {
			return err
		}
	}
	if out.Parquet != "" {
		if err := b.Stage(out.Parquet, export.Parquet(groups)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) load(ctx context.Context, res *Result, groups table.Reader) error {
	st := d.cfg.Storage
	repo, err := d.newRepo(ctx, storage.Config{Kind: st.Kind, DSN: st.DB.DSN, Table: st.DB.Table})
	if err != nil {
		return err
	}
	defer repo.Close()

	if st.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, st.Kind, repo, st.DB.Table, groups); err != nil {
			return err
		}
	}
	stats, err := storage.LoadTable(ctx, repo, groups, d.cfg.Runtime.BatchSize)
	metrics.RecordBatches(d.cfg.Job, stats.Batches)
	if err != nil {
		return err
	}
	res.Loaded = stats.Rows
	metrics.RecordRows(d.cfg.Job, metrics.RowsLoaded, int(stats.Rows))
	return nil
}

// report writes the inspection view. Failures only affect the diagnostic
// output, so they are logged.
func (d *Driver) report(normalized, filtered, groups table.Reader) {
	for _, v := range []struct {
		title string
		t     table.Reader
	}{
		{"normalized", normalized},
		{"filtered", filtered},
		{"grouped", groups},
	} {
		if err := inspect.Print(d.inspect, v.title, v.t, 5); err != nil {
			log.Printf("inspect: %s: %v", v.title, err)
			return
		}
	}
}

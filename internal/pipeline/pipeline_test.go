package pipeline

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesetl/internal/config"
	"salesetl/internal/datasource"
	"salesetl/internal/schema"
	"salesetl/internal/storage"
	_ "salesetl/internal/storage/sqlite"
)

const header = "Region,Country,Item Type,Sales Channel,Order Priority,Order Date,Order ID,Ship Date,Units Sold,Unit Price,Unit Cost,Total Revenue,Total Cost,Total Profit\n"

const salesCSV = header +
	"Asia,China,Cereal,Online,C,8/22/2012,963881480,9/15/2012,2804,205.70,117.11,576782.80,328376.44,600000.50\n" +
	"Europe,Russia,Office Supplies,Offline,L,5/2/2014,341417157,5/8/2014,1779,651.21,524.96,1158502.59,933903.84,224598.75\n" +
	"Asia,China,Baby Food,Offline,H,5/28/2010,669165933,6/27/2010,9925,255.28,159.42,2533654.00,1582243.50,100000.25\n" +
	"Sub-Saharan Africa,Chad,Fruits,Online,M,1/2/2013,120000001,1/9/2013,500,9.33,6.92,4665.00,3460.00,951410.50\n"

const wantGrouped = "region,country,totalprofit\n" +
	"Asia,China,700000.75\n" +
	"Europe,Russia,224598.75\n" +
	"Sub-Saharan Africa,Chad,951410.5\n"

const wantFiltered = "region,country,totalprofit\n" +
	"Asia,China,600000.5\n" +
	"Sub-Saharan Africa,Chad,951410.5\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// fileConfig returns the default job reading src and writing into dir.
func fileConfig(dir, src string) config.Pipeline {
	cfg := config.Default()
	cfg.Source = config.Source{Kind: "file", File: config.SourceFile{Path: src}}
	cfg.Output.Grouped = filepath.Join(dir, "grouped_sales.csv")
	return cfg
}

func httpConfig(dir, url string) config.Pipeline {
	cfg := config.Default()
	cfg.Source.URL = url
	cfg.Source.CachePath = filepath.Join(dir, "sales_100.csv")
	cfg.Source.HTTP.MaxRetries = 0
	cfg.Output.Grouped = filepath.Join(dir, "grouped_sales.csv")
	return cfg
}

func mustRun(t *testing.T, cfg config.Pipeline, opts ...Option) Result {
	t.Helper()
	d, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRun_HTTPSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, salesCSV)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := httpConfig(dir, srv.URL+"/sales_100.csv")
	cfg.Output.Filtered = filepath.Join(dir, "filtered_sales.csv")
	cfg.Output.Parquet = filepath.Join(dir, "grouped_sales.parquet")

	res := mustRun(t, cfg)

	if res.Source != cfg.Source.CachePath || res.Stale {
		t.Fatalf("source = %q stale=%t", res.Source, res.Stale)
	}
	if res.RowsRead != 4 || res.FilteredRows != 2 || res.Groups != 3 {
		t.Fatalf("counts = %d/%d/%d, want 4/2/3", res.RowsRead, res.FilteredRows, res.Groups)
	}
	if got := readFile(t, cfg.Output.Grouped); got != wantGrouped {
		t.Fatalf("grouped =\n%s\nwant:\n%s", got, wantGrouped)
	}
	if got := readFile(t, cfg.Output.Filtered); got != wantFiltered {
		t.Fatalf("filtered =\n%s\nwant:\n%s", got, wantFiltered)
	}
	if fi, err := os.Stat(cfg.Output.Parquet); err != nil || fi.Size() == 0 {
		t.Fatalf("parquet output: %v", err)
	}
	if len(res.Outputs) != 3 || res.Outputs[0] != cfg.Output.Grouped {
		t.Fatalf("outputs = %v", res.Outputs)
	}

	var steps []string
	for _, s := range res.Steps {
		steps = append(steps, s.Step)
	}
	want := "acquire,decode,normalize,validate,filter,aggregate,stage,commit"
	if got := strings.Join(steps, ","); got != want {
		t.Fatalf("steps = %s, want %s", got, want)
	}
}

func TestRun_FallsBackToCachedCopy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := httpConfig(dir, srv.URL+"/sales_100.csv")
	writeFile(t, cfg.Source.CachePath, salesCSV)

	res := mustRun(t, cfg)
	if !res.Stale || res.Groups != 3 {
		t.Fatalf("stale=%t groups=%d, want stale run with 3 groups", res.Stale, res.Groups)
	}
	if got := readFile(t, cfg.Output.Grouped); got != wantGrouped {
		t.Fatalf("grouped =\n%s", got)
	}
}

func TestRun_AcquireFailsWithoutCache(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := httpConfig(dir, srv.URL+"/sales_100.csv")

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = d.Run(context.Background())
	var rerr *datasource.RetrievableError
	if !errors.As(err, &rerr) || !strings.HasPrefix(err.Error(), "acquire: ") {
		t.Fatalf("Run error = %v, want acquire RetrievableError", err)
	}
	if _, err := os.Stat(cfg.Output.Grouped); !os.IsNotExist(err) {
		t.Fatalf("grouped output exists after failed acquire: %v", err)
	}
}

// TestRun_SchemaMismatchLeavesOutputs drops the Order ID column and checks
// that the previous grouped file survives untouched with no temp files left.
func TestRun_SchemaMismatchLeavesOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	writeFile(t, src, "Region,Country,Item Type,Sales Channel,Order Priority,Order Date,Ship Date,Units Sold,Unit Price,Unit Cost,Total Revenue,Total Cost,Total Profit\n"+
		"Asia,China,Cereal,Online,C,8/22/2012,9/15/2012,2804,205.70,117.11,576782.80,328376.44,600000.50\n")
	cfg := fileConfig(dir, src)
	writeFile(t, cfg.Output.Grouped, "previous run\n")

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := d.Run(context.Background())
	var merr *schema.MismatchError
	if !errors.As(err, &merr) {
		t.Fatalf("Run error = %v, want *schema.MismatchError", err)
	}
	if len(merr.Missing) != 1 || merr.Missing[0] != "orderid" {
		t.Fatalf("missing = %v, want [orderid]", merr.Missing)
	}
	if res.Groups != 0 || res.FilteredRows != 0 {
		t.Fatalf("filter or aggregate ran after a failed validation: %+v", res)
	}
	if got := readFile(t, cfg.Output.Grouped); got != "previous run\n" {
		t.Fatalf("grouped output overwritten: %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("dir has %d entries, want source and previous output", len(entries))
	}
}

func TestRun_DuplicateCanonicalNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	writeFile(t, src, "Total Profit,TotalProfit\n1,2\n")

	d, err := New(fileConfig(dir, src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = d.Run(context.Background())
	var serr *schema.SchemaError
	if !errors.As(err, &serr) || !strings.HasPrefix(err.Error(), "normalize: ") {
		t.Fatalf("Run error = %v, want normalize SchemaError", err)
	}
}

func TestRun_SortedGroups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	// Reversed rows put Sub-Saharan Africa first in occurrence order.
	lines := strings.Split(strings.TrimSuffix(salesCSV, "\n"), "\n")
	for i, j := 1, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	writeFile(t, src, strings.Join(lines, "\n")+"\n")
	cfg := fileConfig(dir, src)
	cfg.Aggregate.Sort = true

	mustRun(t, cfg)
	want := "region,country,totalprofit\n" +
		"Asia,China,700000.75\n" +
		"Europe,Russia,224598.75\n" +
		"Sub-Saharan Africa,Chad,951410.5\n"
	if got := readFile(t, cfg.Output.Grouped); got != want {
		t.Fatalf("grouped =\n%s\nwant:\n%s", got, want)
	}
}

func TestRun_LoadsSQLite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	writeFile(t, src, salesCSV)
	cfg := fileConfig(dir, src)
	cfg.Storage = config.Storage{
		Kind: "sqlite",
		DB: config.DBConfig{
			DSN:             filepath.Join(dir, "sales.db"),
			Table:           "grouped_sales",
			AutoCreateTable: true,
		},
	}
	cfg.Runtime.BatchSize = 2

	res := mustRun(t, cfg)
	if res.Loaded != 3 {
		t.Fatalf("Loaded = %d, want 3", res.Loaded)
	}

	db, err := sql.Open("sqlite", cfg.Storage.DB.DSN)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	var sum float64
	if err := db.QueryRow(`SELECT COUNT(*), SUM(totalprofit) FROM grouped_sales`).Scan(&n, &sum); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 3 || sum != 700000.75+224598.75+951410.5 {
		t.Fatalf("db rows=%d sum=%v", n, sum)
	}
}

type failingRepo struct{ closed bool }

func (r *failingRepo) CopyFrom(context.Context, []string, [][]any) (int64, error) {
	return 0, errors.New("copy refused")
}
func (r *failingRepo) Exec(context.Context, string) error { return nil }
func (r *failingRepo) Close()                             { r.closed = true }

func TestRun_LoadFailureDiscardsOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.csv")
	writeFile(t, src, salesCSV)
	cfg := fileConfig(dir, src)
	cfg.Output.Parquet = filepath.Join(dir, "grouped_sales.parquet")
	cfg.Storage = config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: "unused", Table: "grouped_sales"}}

	repo := &failingRepo{}
	var gotCfg storage.Config
	d, err := New(cfg, WithRepositoryFactory(func(_ context.Context, c storage.Config) (storage.Repository, error) {
		gotCfg = c
		return repo, nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = d.Run(context.Background())
	if err == nil || !strings.HasPrefix(err.Error(), "load: ") {
		t.Fatalf("Run error = %v, want load failure", err)
	}
	if !repo.closed {
		t.Fatalf("repository not closed")
	}
	if gotCfg.Kind != "sqlite" || gotCfg.Table != "grouped_sales" {
		t.Fatalf("factory config = %+v", gotCfg)
	}
	for _, p := range []string{cfg.Output.Grouped, cfg.Output.Parquet} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s exists after failed load: %v", p, err)
		}
	}
}

type acquireFunc func(ctx context.Context, url string) (datasource.Acquired, error)

func (f acquireFunc) Acquire(ctx context.Context, url string) (datasource.Acquired, error) {
	return f(ctx, url)
}

func TestRun_InjectedAcquirerAndInspect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "cached.csv")
	writeFile(t, src, salesCSV)
	cfg := httpConfig(dir, "https://example.com/sales_100.csv")

	var gotURL string
	acq := acquireFunc(func(_ context.Context, url string) (datasource.Acquired, error) {
		gotURL = url
		return datasource.Acquired{Path: src}, nil
	})
	var buf bytes.Buffer
	res := mustRun(t, cfg, WithAcquirer(acq), WithInspect(&buf), WithVerbose(true))

	if gotURL != cfg.Source.URL || res.Source != src {
		t.Fatalf("acquired %q from %q", res.Source, gotURL)
	}
	out := buf.String()
	for _, want := range []string{
		"== normalized: 4 rows x 14 columns",
		"== filtered: 2 rows x 3 columns",
		"== grouped: 3 rows x 3 columns",
		"totalprofit",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := httpConfig(dir, "https://example.com/sales_100.csv")
	acq := acquireFunc(func(ctx context.Context, _ string) (datasource.Acquired, error) {
		return datasource.Acquired{}, ctx.Err()
	})
	d, err := New(cfg, WithAcquirer(acq))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Job = ""
	cfg.Filter.Op = "between"
	_, err := New(cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"job", "filter.op"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestCachePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{URL: config.DefaultSourceURL}, "sales_100.csv"},
		{config.Source{URL: config.DefaultSourceURL, CachePath: "/tmp/x.csv"}, "/tmp/x.csv"},
	}
	for _, tt := range tests {
		if got := CachePath(tt.src); got != tt.want {
			t.Fatalf("CachePath(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

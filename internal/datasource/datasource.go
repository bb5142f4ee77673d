// Package datasource acquires the raw bytes the pipeline decodes: it
// downloads the source into a local cache file and falls back to a previous
// copy when the download fails.
package datasource

import (
	"context"
	"fmt"
	"io"
)

// Source opens a stream of raw input bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Fetcher copies the resource at url into w. *httpds.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// RetrievableError reports a failed acquisition: network, DNS, timeout or
// HTTP status. The pipeline continues past it only when a cached copy exists.
type RetrievableError struct {
	URL string
	Err error
}

func (e *RetrievableError) Error() string {
	return fmt.Sprintf("datasource: retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievableError) Unwrap() error { return e.Err }

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"salesetl/internal/table"
)

// LoadStats summarizes a LoadTable call.
type LoadStats struct {
	Rows    int64
	Batches int
}

// LoadTable writes every row of t through repo.CopyFrom in batches of
// batchSize rows. A non-positive batchSize loads the table in one batch.
// Nulls are passed as nil; other cells as string, int64, float64 or
// time.Time. Progress is logged after each batch.
//
// Rows already copied stay written when a later batch fails; the returned
// stats count them.
func LoadTable(ctx context.Context, repo Repository, t table.Reader, batchSize int) (LoadStats, error) {
	var stats LoadStats
	if repo == nil {
		return stats, fmt.Errorf("storage: nil repository")
	}

	names := t.Names()
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return stats, err
		}
		cols[i] = c
	}

	n := t.NumRows()
	if batchSize <= 0 || batchSize > n {
		batchSize = n
	}
	if n == 0 {
		return stats, nil
	}

	var (
		start  = time.Now()
		lastTS = start
		batch  = make([][]any, 0, batchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		got, err := repo.CopyFrom(ctx, names, batch)
		stats.Rows += got
		batch = make([][]any, 0, batchSize)
		if err != nil {
			log.Printf("loader: copy failed batch=%d copied=%d total=%d err=%v", stats.Batches+1, got, stats.Rows, err)
			return err
		}
		stats.Batches++
		now := time.Now()
		rps := float64(0)
		if d := now.Sub(lastTS); d > 0 {
			rps = float64(got) / d.Seconds()
		}
		log.Printf("loader: batch #%d rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			stats.Batches, rps, got, stats.Rows, now.Sub(start).Truncate(time.Millisecond))
		lastTS = now
		return nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c.Value(i)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

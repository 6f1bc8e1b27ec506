package targets

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Aggregator applies a Scanner to a batch of files. Files share no state, so
// they are scanned concurrently by a bounded pool; results keep input order.
type Aggregator struct {
	scanner *Scanner
	workers int
	strict  bool
	cache   *Cache
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers bounds the number of files scanned at once.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithStrict makes the first unparsable marker payload fail the whole batch.
func WithStrict(strict bool) Option {
	return func(a *Aggregator) {
		a.strict = strict
	}
}

// WithCache reuses results for files whose content has not changed.
func WithCache(cache *Cache) Option {
	return func(a *Aggregator) {
		a.cache = cache
	}
}

// WithScanner overrides the scanner.
func WithScanner(scanner *Scanner) Option {
	return func(a *Aggregator) {
		if scanner != nil {
			a.scanner = scanner
		}
	}
}

// NewAggregator creates an aggregator; by default it uses one worker per CPU.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		scanner: NewScanner(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate scans every source and returns one table per source, in input
// order. Diagnostics are ordered by source then line. In strict mode the
// first diagnostic is returned as an error and no report is produced.
func (a *Aggregator) Aggregate(ctx context.Context, sources []Source) (*Report, error) {
	tables := make([]*Table, len(sources))
	diagnostics := make([][]Diagnostic, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for i, src := range sources {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			table, diags, err := a.scanOne(src)
			if err != nil {
				return err
			}
			if a.strict && len(diags) > 0 {
				return fmt.Errorf("failed to scan %s: %w", src.Path, diags[0])
			}
			tables[i] = table
			diagnostics[i] = diags
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Tables: tables}
	for _, diags := range diagnostics {
		report.Diagnostics = append(report.Diagnostics, diags...)
	}
	return report, nil
}

func (a *Aggregator) scanOne(src Source) (*Table, []Diagnostic, error) {
	if a.cache == nil {
		table, diags := a.scanner.Scan(src.Content, src.Path)
		return table, diags, nil
	}
	fingerprint, err := Fingerprint(src.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fingerprint %s: %w", src.Path, err)
	}
	if entry, ok := a.cache.get(src.Path, fingerprint); ok {
		return entry.table, entry.diagnostics, nil
	}
	table, diags := a.scanner.Scan(src.Content, src.Path)
	a.cache.add(src.Path, fingerprint, table, diags)
	return table, diags, nil
}

package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 200 * time.Millisecond
)

// Loader retrieves and parses both survey tables.
type Loader interface {
	Load(ctx context.Context, indicators, regions string) (*Dataset, error)
}

type Option func(*loader)

// WithSource registers a source for a location scheme such as "s3" or "duckdb".
func WithSource(scheme string, src Source) Option {
	return func(l *loader) {
		l.sources[scheme] = src
	}
}

// WithRetry sets the attempts made per location and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(l *loader) {
		if attempts > 0 {
			l.attempts = attempts
		}
		if backoff >= 0 {
			l.backoff = backoff
		}
	}
}

type loader struct {
	sources  map[string]Source
	attempts int
	backoff  time.Duration
}

// NewLoader returns a loader reading local files and http(s) URLs; other
// schemes are added with WithSource.
func NewLoader(opts ...Option) Loader {
	l := &loader{
		sources: map[string]Source{
			"file": NewFileSource(),
		},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	httpSrc := NewHTTPSource(nil)
	l.sources["http"] = httpSrc
	l.sources["https"] = httpSrc

	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *loader) Load(ctx context.Context, indicators, regions string) (*Dataset, error) {
	logger := zerolog.Ctx(ctx)
	started := time.Now()

	var (
		rows    []domain.IndicatorRow
		lookups []domain.RegionLookupRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := l.fetch(gctx, indicators)
		if err != nil {
			return err
		}
		rows, err = parseIndicators(gctx, records)
		if err != nil {
			return &LoadError{Location: indicators, Attempts: 1, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		records, err := l.fetch(gctx, regions)
		if err != nil {
			return err
		}
		lookups, err = parseRegions(gctx, records)
		if err != nil {
			return &LoadError{Location: regions, Attempts: 1, Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("dataset load failed")
		return nil, err
	}

	ds := New(rows, lookups)
	logger.Info().
		Int("rows", len(rows)).
		Int("regions", len(lookups)).
		Dur("took", time.Since(started)).
		Msg("dataset loaded")
	return ds, nil
}

func (l *loader) fetch(ctx context.Context, location string) ([][]string, error) {
	logger := zerolog.Ctx(ctx)
	src, ok := l.sources[scheme(location)]
	if !ok {
		return nil, &LoadError{
			Location: location,
			Attempts: 0,
			Err:      fmt.Errorf("no source registered for scheme %q", scheme(location)),
		}
	}

	wait := l.backoff
	var err error
	attempt := 0
	for attempt < l.attempts {
		attempt++
		var records [][]string
		records, err = src.Fetch(ctx, location)
		if err == nil {
			return records, nil
		}
		if !retryable(err) || attempt == l.attempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("location", location).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retrying source fetch")

		select {
		case <-ctx.Done():
			return nil, &LoadError{Location: location, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
	}

	return nil, &LoadError{Location: location, Attempts: attempt, Err: err}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrNotFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

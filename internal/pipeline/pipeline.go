// Package pipeline orchestrates the daily ingest of a JMA listing into the
// catalog and the aggregation of the catalog into derived tables.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-catalog/internal/adapter/jma"
	"github.com/couchcryptid/quake-catalog/internal/catalog"
	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

// Fetcher downloads the listing page for a date.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) (jma.Page, error)
}

// CatalogStore persists one catalog file per listing date.
type CatalogStore interface {
	Save(date time.Time, records []domain.Record) (string, error)
	Discover() ([]string, error)
}

// Aggregator builds the filtered, chronological table for a profile.
type Aggregator interface {
	Aggregate(ctx context.Context, profile domain.Profile) (catalog.Result, error)
}

// Publisher forwards ingested records to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, date time.Time, records []domain.Record) error
}

// IngestReport describes one ingested listing.
type IngestReport struct {
	Date      time.Time
	Path      string
	Records   int
	Skipped   int
	Published int
}

// Analysis is an aggregation result with derived metrics filled in.
type Analysis struct {
	catalog.Result
	Summary domain.Summary
}

// Pipeline runs the ingest and analysis stages.
type Pipeline struct {
	fetcher    Fetcher
	store      CatalogStore
	aggregator Aggregator
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithPublisher publishes every ingested listing through pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithClock overrides the clock used for stage durations.
func WithClock(clk clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = clk }
}

// New creates a Pipeline. fetcher may be nil when only IngestPage and the
// analysis stages are used.
func New(f Fetcher, s CatalogStore, a Aggregator, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		store:      s,
		aggregator: a,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness reports ready once the catalog holds at least one file.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	paths, err := p.store.Discover()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return domain.ErrNoCatalogFiles
	}
	return nil
}

// Ingest fetches the listing for date and stores it as that day's catalog
// file. Fetch failures are returned as-is and not retried.
func (p *Pipeline) Ingest(ctx context.Context, date time.Time) (IngestReport, error) {
	if p.fetcher == nil {
		return IngestReport{}, fmt.Errorf("ingest %s: no fetcher configured", date.Format("20060102"))
	}
	start := p.clock.Now()
	defer p.observe("ingest", start)

	page, err := p.fetcher.Fetch(ctx, date)
	if err != nil {
		return IngestReport{}, err
	}
	return p.ingest(ctx, date, page)
}

// IngestPage stores an already downloaded listing page for date.
func (p *Pipeline) IngestPage(ctx context.Context, date time.Time, page jma.Page) (IngestReport, error) {
	start := p.clock.Now()
	defer p.observe("ingest", start)
	return p.ingest(ctx, date, page)
}

func (p *Pipeline) ingest(ctx context.Context, date time.Time, page jma.Page) (IngestReport, error) {
	text, err := jma.ExtractPreformatted(page)
	if err != nil {
		return IngestReport{}, fmt.Errorf("extract listing %s: %w", date.Format("20060102"), err)
	}

	parsed := domain.ParseListing(text)
	p.metrics.LinesParsed.Add(float64(len(parsed.Records)))
	p.metrics.LinesSkipped.Add(float64(parsed.Skipped))
	if parsed.Skipped > 0 {
		p.logger.Info("listing lines did not match hypocenter format", "count", parsed.Skipped)
	}

	path, err := p.store.Save(date, parsed.Records)
	if err != nil {
		return IngestReport{}, err
	}
	p.metrics.RecordsWritten.Add(float64(len(parsed.Records)))

	report := IngestReport{
		Date:    date,
		Path:    path,
		Records: len(parsed.Records),
		Skipped: parsed.Skipped,
	}

	if p.publisher != nil && len(parsed.Records) > 0 {
		if err := p.publisher.Publish(ctx, date, parsed.Records); err != nil {
			return report, err
		}
		p.metrics.RecordsPublished.Add(float64(len(parsed.Records)))
		report.Published = len(parsed.Records)
	}

	p.logger.Info("catalog saved", "path", path, "records", report.Records, "published", report.Published)
	return report, nil
}

// Analyze aggregates the catalog for profile and derives cumulative energy
// and event count over the resulting table.
func (p *Pipeline) Analyze(ctx context.Context, profile domain.Profile) (Analysis, error) {
	start := p.clock.Now()
	defer p.observe("aggregate", start)

	res, err := p.aggregator.Aggregate(ctx, profile)
	if err != nil {
		return Analysis{}, err
	}
	res.Rows = domain.DeriveMetrics(res.Rows)
	p.metrics.DerivedRows.WithLabelValues(profile.Name).Set(float64(len(res.Rows)))

	a := Analysis{Result: res, Summary: domain.Summarize(res.Rows)}
	p.logger.Info("catalog aggregated",
		"profile", profile.Name,
		"region", profile.TargetRegion,
		"files", len(res.Files),
		"rows", a.Summary.Count,
		"max_magnitude", a.Summary.MaxMagnitude,
	)
	return a, nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.RunDuration.WithLabelValues(stage).Observe(p.clock.Since(start).Seconds())
}

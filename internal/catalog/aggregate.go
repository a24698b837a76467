package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

// Discoverer lists catalog files in processing order.
type Discoverer interface {
	Discover() ([]string, error)
}

// Result is the outcome of one aggregation run.
type Result struct {
	Profile domain.Profile
	Files   []string
	Loaded  int            // rows concatenated from all files
	Matched int            // rows whose region equals the target region
	Dropped map[string]int // rows left out, by reason ("region" or a field name)
	Rows    []domain.DerivedRecord
}

// Aggregator merges catalog files into a chronological table for a profile.
type Aggregator struct {
	discoverer Discoverer
	loader     Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewAggregator creates an Aggregator. loader may wrap the discoverer's
// storage, e.g. a CachedLoader around a Store.
func NewAggregator(d Discoverer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		discoverer: d,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
	}
}

// Aggregate discovers every catalog file and aggregates them for profile.
// It returns domain.ErrNoCatalogFiles when the directory holds none.
func (a *Aggregator) Aggregate(ctx context.Context, profile domain.Profile) (Result, error) {
	paths, err := a.discoverer.Discover()
	if err != nil {
		return Result{}, err
	}
	return a.AggregatePaths(ctx, profile, paths)
}

// AggregatePaths concatenates the given files in order, keeps the rows of the
// profile's region that carry every required field, and sorts them by
// timestamp. Ties keep their concatenation order. The same path listed twice
// contributes its rows twice.
func (a *Aggregator) AggregatePaths(ctx context.Context, profile domain.Profile, paths []string) (Result, error) {
	if len(paths) == 0 {
		return Result{}, domain.ErrNoCatalogFiles
	}

	rows, err := a.Merge(ctx, paths)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Profile: profile,
		Files:   paths,
		Loaded:  len(rows),
		Dropped: make(map[string]int),
	}
	target := strings.TrimSpace(profile.TargetRegion)
	required := profile.Required()

	for _, row := range rows {
		if strings.TrimSpace(row.Region) != target {
			res.Dropped["region"]++
			continue
		}
		res.Matched++

		rec, missing := row.Coerce()
		if f, ok := firstMissing(required, missing); ok {
			res.Dropped[string(f)]++
			continue
		}
		ts, _ := domain.Timestamp(rec)
		res.Rows = append(res.Rows, domain.DerivedRecord{
			Record:    rec,
			Timestamp: ts,
			Missing:   missing,
		})
	}

	slices.SortStableFunc(res.Rows, func(x, y domain.DerivedRecord) int {
		return x.Timestamp.Compare(y.Timestamp)
	})

	a.metrics.RowsAggregated.Add(float64(res.Loaded))
	for reason, n := range res.Dropped {
		a.metrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}
	a.logger.Debug("catalog aggregated",
		"profile", profile.Name,
		"files", len(paths),
		"loaded", res.Loaded,
		"matched", res.Matched,
		"kept", len(res.Rows),
	)
	return res, nil
}

// Merge concatenates the rows of every path in order. No deduplication is
// performed within or across files.
func (a *Aggregator) Merge(ctx context.Context, paths []string) ([]Row, error) {
	var all []Row
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := a.loader.Load(path)
		if err != nil {
			return nil, err
		}
		a.metrics.CatalogFilesLoaded.Inc()
		all = append(all, rows...)
	}
	return all, nil
}

// firstMissing returns the first required field present in missing.
func firstMissing(required, missing []domain.Field) (domain.Field, bool) {
	for _, f := range required {
		if slices.Contains(missing, f) {
			return f, true
		}
	}
	return "", false
}

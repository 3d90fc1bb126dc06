package school

import (
	"context"
	"log/slog"

	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/pkg/errors"
)

// Finder looks for schools through a search engine and merges the results
// by phone number.
type Finder struct {
	client search.Client
}

// FindSchools searches schools of the given type in region. It never fails:
// a query that cannot be completed is logged, reported to the progress
// callback of ctx and skipped. When every query fails, the result is empty.
func (f *Finder) FindSchools(ctx context.Context, region string, schoolType string) []Record {
	return f.Find(ctx, Query{Region: region, SchoolType: schoolType})
}

// Find is FindSchools with a Query.
func (f *Finder) Find(ctx context.Context, query Query) []Record {
	queries := query.Strings()
	tracker := newProgressTracker(ctx, len(queries))

	records := make([]Record, 0)

	for i, q := range queries {
		results, err := f.client.Search(ctx, q)
		if err != nil {
			err = errors.Wrapf(err, "search failed for query '%s'", q)
			slog.WarnContext(ctx, "search failed", slog.String("query", q), slog.Any("error", err))
			tracker.emit(i+1, q, 0, err)
			continue
		}

		for _, r := range results {
			records = append(records, ParseResult(r))
		}

		slog.DebugContext(ctx, "search completed", slog.String("query", q), slog.Int("results", len(results)))
		tracker.emit(i+1, q, len(results), nil)
	}

	idx := newPhoneIndex()
	for _, r := range records {
		idx.Add(r)
	}

	unique := idx.Records()

	slog.DebugContext(ctx, "schools deduplicated",
		slog.Int("records", len(records)),
		slog.Int("unique", len(unique)),
		slog.Int("phones", len(idx.Phones())),
	)

	return unique
}

func NewFinder(client search.Client) *Finder {
	return &Finder{
		client: client,
	}
}

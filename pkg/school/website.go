package school

import (
	"context"
	"log/slog"

	"github.com/bornholm/schoolscout/pkg/scraper"
	"github.com/pkg/errors"
)

// CheckWebsites probes the website of each record, one at a time, and
// returns copies with Reachable set. A failed probe counts as unreachable.
// Records without a website are returned unchanged.
func CheckWebsites(ctx context.Context, s scraper.Scraper, records []Record) []Record {
	checked := make([]Record, len(records))
	copy(checked, records)

	for i := range checked {
		if !checked[i].HasWebsite {
			continue
		}

		reachable, err := s.Check(ctx, checked[i].Source)
		if err != nil {
			slog.WarnContext(ctx, "website check failed", slog.String("url", checked[i].Source), slog.Any("error", errors.WithStack(err)))
			reachable = false
		}

		checked[i].Reachable = &reachable
	}

	return checked
}

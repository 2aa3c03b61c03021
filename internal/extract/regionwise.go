package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
)

// RegionInsights fetches today's per-ad performance broken down by region.
// Metric values are persisted as the strings the API returned; this table is
// a raw landing zone, not a typed fact table.
func RegionInsights(ctx context.Context, f Fetcher, stamp Stamp, logg *logger.Logger) ([]warehouse.Row, error) {
	params := url.Values{
		"level":       {"ad"},
		"date_preset": {"today"},
		"breakdowns":  {"region"},
		"fields":      {"ad_id,impressions,clicks,ctr"},
	}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionInsights, "insights"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("regionwise listing rate limited, continuing with %d fetched records", len(items)))
	}

	rows := make([]warehouse.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, warehouse.RegionInsightRow{
			AdID:        optString(item, "ad_id"),
			Impressions: optString(item, "impressions"),
			Clicks:      optString(item, "clicks"),
			CTR:         optString(item, "ctr"),
			DateStart:   optString(item, "date_start"),
			DateStop:    optString(item, "date_stop"),
			Region:      optString(item, "region"),
			Hour:        stamp.HourString(),
			FetchedAt:   stamp.FetchedAt,
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched regionwise insights")
	return rows, nil
}

package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
)

const activityFields = "object_id,object_name,object_type,event_type,changed_fields,extra_data,actor_id,actor_name,event_time"

// activityEventFilter restricts the feed to mutation events; reads and
// billing noise are irrelevant to change history.
var activityEventFilter = []map[string]any{
	{"field": "event_type", "operator": "IN", "value": []string{"UPDATE", "CREATE"}},
}

// Activities fetches the account change feed for the [since, until] window
// (inclusive calendar dates in the pipeline timezone).
func Activities(ctx context.Context, f Fetcher, stamp Stamp, since, until string, logg *logger.Logger) ([]warehouse.Row, error) {
	filtering, err := json.Marshal(activityEventFilter)
	if err != nil {
		return nil, fmt.Errorf("encoding activity filter: %w", err)
	}

	params := url.Values{
		"fields":    {activityFields},
		"filtering": {string(filtering)},
		"since":     {since},
		"until":     {until},
	}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionActivities, "activities"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("activity listing rate limited, continuing with %d fetched records", len(items)))
	}

	rows := make([]warehouse.Row, 0, len(items))
	for _, item := range items {
		normalizeTimestampField(item, "event_time")
		rows = append(rows, warehouse.ActivityRow{
			ObjectID:      optString(item, "object_id"),
			ObjectName:    optString(item, "object_name"),
			ObjectType:    optString(item, "object_type"),
			EventType:     optString(item, "event_type"),
			ChangedFields: optText(item, "changed_fields"),
			ExtraData:     optText(item, "extra_data"),
			ActorID:       optString(item, "actor_id"),
			ActorName:     optString(item, "actor_name"),
			EventTime:     optString(item, "event_time"),
			Hour:          stamp.HourString(),
			FetchedAt:     stamp.FetchedAt,
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched activity events")
	return rows, nil
}

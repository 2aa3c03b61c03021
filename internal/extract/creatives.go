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

const creativeFields = "id,name,body,title,object_story_spec,call_to_action_type"

// Creatives pages through the account's ad creatives. The creative body and
// story spec are kept verbatim; the full record also lands in raw_data.
func Creatives(ctx context.Context, f Fetcher, stamp Stamp, logg *logger.Logger) ([]warehouse.Row, error) {
	params := url.Values{
		"fields": {creativeFields},
		"limit":  {"100"},
	}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionCreatives, "adcreatives"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("creative listing rate limited, continuing with %d fetched records", len(items)))
	}

	rows := make([]warehouse.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, warehouse.CreativeRow{
			ID:               optString(item, "id"),
			Name:             optString(item, "name"),
			Body:             optString(item, "body"),
			Title:            optString(item, "title"),
			ObjectStorySpec:  optJSON(item, "object_story_spec"),
			CallToActionType: optString(item, "call_to_action_type"),
			Hour:             stamp.HourString(),
			FetchedAt:        stamp.FetchedAt,
			RawData:          rawJSON(item),
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched ad creatives")
	return rows, nil
}

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

// adFields is requested against the account object itself; the ad listing
// comes back nested under the "ads" field with its own paging.
const adFields = "ads{id,name,adset_id,targeting{age_min,age_max,genders,geo_locations,device_platforms,publisher_platforms},insights.date_preset(maximum){impressions,clicks,ctr,spend,actions,action_values,conversion_rate_ranking,purchase_roas,mobile_app_purchase_roas}}"

// Ads fetches every ad with its embedded targeting summary and lifetime
// insight document. The first page is unwrapped from the account object;
// continuation pages are plain listings.
func Ads(ctx context.Context, f Fetcher, stamp Stamp, logg *logger.Logger) ([]warehouse.AdRow, error) {
	params := url.Values{"fields": {adFields}}
	accountURL := f.ObjectPath(meta.VersionAds, "act_"+f.AccountID(), "")

	page, err := f.GetNestedWithBackoff(ctx, accountURL, params, "ads")
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, "ad listing rate limited before the first page, continuing with no ads")
		return nil, nil
	}

	items := page.Data
	if next := page.Paging.Next; next != "" {
		more, err := f.GetAllPages(ctx, next, nil)
		items = append(items, more...)
		if err != nil {
			if !errors.Is(err, meta.ErrRateLimited) {
				return nil, err
			}
			logg.Warn(ctx, fmt.Sprintf("ad listing rate limited, continuing with %d fetched records", len(items)))
		}
	}

	rows := make([]warehouse.AdRow, 0, len(items))
	for _, item := range items {
		id, ok := item["id"].(string)
		if !ok || id == "" {
			logg.Warn(ctx, "ad record missing id, dropping record")
			continue
		}
		rows = append(rows, warehouse.AdRow{
			ID:        id,
			Name:      optString(item, "name"),
			AdsetID:   optString(item, "adset_id"),
			Targeting: optJSON(item, "targeting"),
			Insights:  optJSON(item, "insights"),
			Hour:      stamp.HourString(),
			FetchedAt: stamp.FetchedAt,
			RawData:   rawJSON(item),
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched ads")
	return rows, nil
}

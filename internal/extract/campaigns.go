package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/angelmondragon/adsync/internal/schema"
	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
)

const campaignFields = "id,name,status,objective,buying_type,special_ad_categories,start_time,end_time"

// Campaigns fetches the account's campaign listing, validates each record,
// and projects the valid ones. A rate-limit exhaustion mid-listing keeps the
// pages already fetched instead of failing the step.
func Campaigns(ctx context.Context, f Fetcher, stamp Stamp, logg *logger.Logger) ([]warehouse.Row, error) {
	params := url.Values{"fields": {campaignFields}}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionCampaigns, "campaigns"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("campaign listing rate limited, continuing with %d fetched records", len(items)))
	}

	rows := make([]warehouse.Row, 0, len(items))
	for _, item := range items {
		normalizeTimestampField(item, "start_time")
		normalizeTimestampField(item, "end_time")

		if report := schema.Validate(item, schema.Campaign); !report.OK() {
			warnCtx := logg.WithFields(ctx, map[string]any{
				"campaign_id": item["id"],
				"errors":      report.Summary(),
			})
			logg.Warn(warnCtx, "campaign failed schema validation, dropping record")
			continue
		}

		rows = append(rows, warehouse.CampaignRow{
			CampaignID:          item["id"].(string),
			AccountID:           f.AccountID(),
			Name:                item["name"].(string),
			Objective:           optString(item, "objective"),
			Status:              item["status"].(string),
			BuyingType:          optString(item, "buying_type"),
			SpecialAdCategories: stringSlice(item["special_ad_categories"]),
			StartTime:           optString(item, "start_time"),
			EndTime:             optString(item, "end_time"),
			BudgetRemaining:     optString(item, "budget_remaining"),
			DailyBudget:         optString(item, "daily_budget"),
			LifetimeBudget:      optString(item, "lifetime_budget"),
			CreatedAt:           stamp.FetchedAt,
			UpdatedAt:           stamp.FetchedAt,
			Hour:                stamp.HourString(),
			FetchedAt:           stamp.FetchedAt,
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched valid campaigns")
	return rows, nil
}

func stringSlice(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

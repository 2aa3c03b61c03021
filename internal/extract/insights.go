package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/angelmondragon/adsync/internal/schema"
	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
	"github.com/shopspring/decimal"
)

const insightFields = "ad_id,adset_id,campaign_id,account_id,date_start,date_stop,clicks,impressions,spend,reach,actions,action_values,outbound_clicks,ctr,cpp,video_p25_watched_actions,video_thruplay_watched_actions"

// AdInsights fetches today's per-ad insights for the given ad ids and
// coerces the numeric metric strings in place. A record whose metrics cannot
// be coerced is dropped with a warning; the batch continues.
func AdInsights(ctx context.Context, f Fetcher, adIDs []string, logg *logger.Logger) ([]map[string]any, error) {
	if len(adIDs) == 0 {
		return nil, nil
	}

	filtering, err := json.Marshal([]map[string]any{
		{"field": "ad.id", "operator": "IN", "value": adIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding insight filter: %w", err)
	}

	params := url.Values{
		"level":             {"ad"},
		"date_preset":       {"today"},
		"action_breakdowns": {"action_type"},
		"filtering":         {string(filtering)},
		"fields":            {insightFields},
	}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionInsights, "insights"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("insight listing rate limited, continuing with %d fetched records", len(items)))
	}

	processed := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if err := coerceInsightMetrics(item); err != nil {
			warnCtx := logg.WithFields(ctx, map[string]any{"ad_id": item["ad_id"], "error": err.Error()})
			logg.Warn(warnCtx, "insight metric coercion failed, dropping record")
			continue
		}
		processed = append(processed, item)
	}

	logg.Info(logg.WithField(ctx, "count", len(processed)), "fetched ad insights")
	return processed, nil
}

func coerceInsightMetrics(item map[string]any) error {
	for _, field := range []string{"clicks", "impressions", "reach"} {
		if _, ok := item[field]; !ok {
			continue
		}
		n, err := coerceInt(item[field])
		if err != nil {
			return err
		}
		item[field] = n
	}
	for _, field := range []string{"spend", "ctr", "cpp"} {
		if _, ok := item[field]; !ok {
			continue
		}
		f, err := coerceFloat(item[field])
		if err != nil {
			return err
		}
		item[field] = f
	}
	return nil
}

// SynthesizeMissingInsights appends an all-zero insight record for every
// fetched ad absent from the insight batch, so each ad yields exactly one
// snapshot row for the hour. Date fields carry the run's date; the campaign
// key is unknown at the ad level and left empty.
func SynthesizeMissingInsights(insights []map[string]any, ads []warehouse.AdRow, stamp Stamp, accountID string) []map[string]any {
	seen := make(map[string]struct{}, len(insights))
	for _, insight := range insights {
		if id, ok := insight["ad_id"].(string); ok {
			seen[id] = struct{}{}
		}
	}

	for _, ad := range ads {
		if _, ok := seen[ad.ID]; ok {
			continue
		}
		adsetID := ""
		if ad.AdsetID != nil {
			adsetID = *ad.AdsetID
		}
		insights = append(insights, map[string]any{
			"ad_id":                  ad.ID,
			"adset_id":               adsetID,
			"campaign_id":            "",
			"account_id":             accountID,
			"date_start":             stamp.Date(),
			"date_stop":              stamp.Date(),
			"clicks":                 int64(0),
			"impressions":            int64(0),
			"spend":                  0.0,
			"reach":                  int64(0),
			"page_engagement":        int64(0),
			"post_engagement":        int64(0),
			"video_view":             int64(0),
			"landing_page_view":      int64(0),
			"purchase":               int64(0),
			"add_to_cart":            int64(0),
			"link_click":             int64(0),
			"post_reaction":          int64(0),
			"outbound_click":         int64(0),
			"purchase_value":         0.0,
			"view_content_value":     0.0,
			"add_to_cart_value":      0.0,
			"ctr":                    0.0,
			"cpp":                    0.0,
			"video_p25_watched":      int64(0),
			"video_thruplay_watched": int64(0),
		})
	}

	return insights
}

// InsightRows stamps, validates, and projects the insight batch into
// snapshot rows. Invalid records are dropped with field-level detail.
func InsightRows(ctx context.Context, insights []map[string]any, stamp Stamp, logg *logger.Logger) []warehouse.Row {
	rows := make([]warehouse.Row, 0, len(insights))

	for _, insight := range insights {
		insight["snapshot_hour"] = stamp.HourString()

		if report := schema.Validate(insight, schema.AdInsightsHourlySnapshot); !report.OK() {
			warnCtx := logg.WithFields(ctx, map[string]any{
				"ad_id":  insight["ad_id"],
				"errors": report.Summary(),
			})
			logg.Warn(warnCtx, "insight failed schema validation, dropping record")
			continue
		}

		row, err := projectInsight(insight, stamp)
		if err != nil {
			warnCtx := logg.WithFields(ctx, map[string]any{"ad_id": insight["ad_id"], "error": err.Error()})
			logg.Warn(warnCtx, "insight projection failed, dropping record")
			continue
		}
		rows = append(rows, row)
	}

	return rows
}

func projectInsight(insight map[string]any, stamp Stamp) (warehouse.InsightSnapshotRow, error) {
	row := warehouse.InsightSnapshotRow{
		SnapshotHour: stamp.Hour,
		AdID:         stringField(insight, "ad_id"),
		AdsetID:      stringField(insight, "adset_id"),
		CampaignID:   stringField(insight, "campaign_id"),
		AccountID:    stringField(insight, "account_id"),
		DateStart:    stringField(insight, "date_start"),
		DateStop:     stringField(insight, "date_stop"),
		CreatedAt:    stamp.FetchedAt,
	}

	intFields := map[string]*int64{
		"clicks":                 &row.Clicks,
		"impressions":            &row.Impressions,
		"reach":                  &row.Reach,
		"page_engagement":        &row.PageEngagement,
		"post_engagement":        &row.PostEngagement,
		"video_view":             &row.VideoView,
		"landing_page_view":      &row.LandingPageView,
		"purchase":               &row.Purchase,
		"add_to_cart":            &row.AddToCart,
		"link_click":             &row.LinkClick,
		"post_reaction":          &row.PostReaction,
		"outbound_click":         &row.OutboundClick,
		"video_p25_watched":      &row.VideoP25Watched,
		"video_thruplay_watched": &row.VideoThruplayWatched,
	}
	for field, dst := range intFields {
		n, err := coerceInt(insight[field])
		if err != nil {
			return row, err
		}
		*dst = n
	}

	decimalFields := map[string]*decimal.Decimal{
		"spend":              &row.Spend,
		"purchase_value":     &row.PurchaseValue,
		"view_content_value": &row.ViewContentValue,
		"add_to_cart_value":  &row.AddToCartValue,
	}
	for field, dst := range decimalFields {
		d, err := coerceDecimal(insight[field])
		if err != nil {
			return row, err
		}
		*dst = d
	}

	floatFields := map[string]*float64{
		"ctr": &row.CTR,
		"cpp": &row.CPP,
	}
	for field, dst := range floatFields {
		f, err := coerceFloat(insight[field])
		if err != nil {
			return row, err
		}
		*dst = f
	}

	return row, nil
}

func stringField(item map[string]any, field string) string {
	s, _ := item[field].(string)
	return s
}

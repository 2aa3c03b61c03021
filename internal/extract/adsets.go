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

// adsetFields requests every scalar attribute plus the full targeting
// sub-document; the targeting field enumerates its own sub-fields because
// the API returns only a summary otherwise.
const adsetFields = "optimization_goal,updated_time,billing_event,bid_strategy,lifetime_spend_cap,daily_spend_cap,learning_stage_info,effective_status,lifetime_min_spend_target,destination_type,bid_adjustments,bid_amount,id,daily_min_spend_target,campaign_id,pacing_type,created_time,attribution_spec,issues_info,lifetime_budget,creative_sequence,adset_schedule,end_time,daily_budget,is_dynamic_creative,start_time,account_id,adlabels,budget_remaining,promoted_object,name,bid_constraints,targeting{geo_locations,keywords,genders,age_min,age_max,relationship_statuses,countries,locales,device_platforms,effective_device_platforms,publisher_platforms,effective_publisher_platforms,facebook_positions,effective_facebook_positions,instagram_positions,effective_instagram_positions,audience_network_positions,effective_audience_network_positions,messenger_positions,effective_messenger_positions,education_statuses,user_adclusters,excluded_geo_locations,interested_in,interests,behaviors,connections,excluded_connections,friends_of_connections,user_os,user_device,excluded_user_device,app_install_state,wireless_carrier,site_category,college_years,work_employers,work_positions,education_majors,life_events,politics,income,home_type,home_value,ethnic_affinity,generation,household_composition,moms,office_type,family_statuses,net_worth,home_ownership,industries,education_schools,custom_audiences,excluded_custom_audiences,dynamic_audience_ids,product_audience_specs,excluded_product_audience_specs,flexible_spec,exclusions,excluded_publisher_categories,excluded_publisher_list_ids,place_page_set_ids,targeting_optimization,brand_safety_content_filter_levels,is_whatsapp_destination_ad,instream_video_skippable_excluded,targeting_relaxation_types},status,rf_prediction_id,time_based_ad_rotation_id_blocks,time_based_ad_rotation_intervals,frequency_control_specs"

// Adsets pages through the account's ad sets. Structured sub-documents are
// serialized verbatim into their JSONB columns.
func Adsets(ctx context.Context, f Fetcher, stamp Stamp, logg *logger.Logger) ([]warehouse.AdsetRow, error) {
	params := url.Values{"fields": {adsetFields}}

	items, err := f.GetAllPages(ctx, f.AccountPath(meta.VersionAdsets, "adsets"), params)
	if err != nil {
		if !errors.Is(err, meta.ErrRateLimited) {
			return nil, err
		}
		logg.Warn(ctx, fmt.Sprintf("adset listing rate limited, continuing with %d fetched records", len(items)))
	}

	rows := make([]warehouse.AdsetRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, warehouse.AdsetRow{
			ID:                           optString(item, "id"),
			Name:                         optString(item, "name"),
			CampaignID:                   optString(item, "campaign_id"),
			AccountID:                    optString(item, "account_id"),
			Status:                       optString(item, "status"),
			OptimizationGoal:             optString(item, "optimization_goal"),
			BillingEvent:                 optString(item, "billing_event"),
			BidStrategy:                  optString(item, "bid_strategy"),
			BidAmount:                    optInt64(item, "bid_amount"),
			DailyBudget:                  optString(item, "daily_budget"),
			LifetimeBudget:               optString(item, "lifetime_budget"),
			BudgetRemaining:              optString(item, "budget_remaining"),
			StartTime:                    optString(item, "start_time"),
			EndTime:                      optString(item, "end_time"),
			CreatedTime:                  optString(item, "created_time"),
			UpdatedTime:                  optString(item, "updated_time"),
			EffectiveStatus:              optString(item, "effective_status"),
			DestinationType:              optString(item, "destination_type"),
			LearningStageInfo:            optJSON(item, "learning_stage_info"),
			AttributionSpec:              optJSON(item, "attribution_spec"),
			PromotedObject:               optJSON(item, "promoted_object"),
			Targeting:                    optJSON(item, "targeting"),
			PacingType:                   optJSON(item, "pacing_type"),
			AdLabels:                     optJSON(item, "adlabels"),
			BidAdjustments:               optJSON(item, "bid_adjustments"),
			BidConstraints:               optJSON(item, "bid_constraints"),
			AdsetSchedule:                optJSON(item, "adset_schedule"),
			IssuesInfo:                   optJSON(item, "issues_info"),
			CreativeSequence:             optJSON(item, "creative_sequence"),
			DailySpendCap:                optString(item, "daily_spend_cap"),
			LifetimeSpendCap:             optString(item, "lifetime_spend_cap"),
			DailyMinSpendTarget:          optString(item, "daily_min_spend_target"),
			LifetimeMinSpendTarget:       optString(item, "lifetime_min_spend_target"),
			IsDynamicCreative:            optBool(item, "is_dynamic_creative"),
			RFPredictionID:               optString(item, "rf_prediction_id"),
			TimeBasedAdRotationIDBlocks:  optJSON(item, "time_based_ad_rotation_id_blocks"),
			TimeBasedAdRotationIntervals: optJSON(item, "time_based_ad_rotation_intervals"),
			FrequencyControlSpecs:        optJSON(item, "frequency_control_specs"),
			Hour:                         stamp.HourString(),
			FetchedAt:                    stamp.FetchedAt,
			RawData:                      rawJSON(item),
		})
	}

	logg.Info(logg.WithField(ctx, "count", len(rows)), "fetched adsets")
	return rows, nil
}

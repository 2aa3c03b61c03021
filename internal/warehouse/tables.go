// Package warehouse owns the Postgres side of the pipeline: typed row
// shapes, per-table natural keys, and the bulk upsert that reconciles each
// batch against what is already stored.
package warehouse

// Table describes one warehouse table for bulk reconciliation: its full
// column list in insert order, the natural-key columns used as the conflict
// target, and the mutable columns rewritten on conflict. Creation timestamps
// are write-once and never appear in UpdateColumns.
type Table struct {
	Name          string
	Columns       []string
	ConflictKey   []string
	UpdateColumns []string
}

var Campaigns = Table{
	Name: "dim_campaign",
	Columns: []string{
		"campaign_id", "account_id", "campaign_name", "objective", "status",
		"buying_type", "special_ad_categories", "start_time", "end_time",
		"budget_remaining", "daily_budget", "lifetime_budget",
		"created_at", "updated_at", "hour", "fetched_at",
	},
	ConflictKey: []string{"campaign_id"},
	UpdateColumns: []string{
		"account_id", "campaign_name", "objective", "status", "buying_type",
		"special_ad_categories", "start_time", "end_time", "budget_remaining",
		"daily_budget", "lifetime_budget", "updated_at", "hour", "fetched_at",
	},
}

var Activities = Table{
	Name: "ad_account_activity_history",
	Columns: []string{
		"object_id", "object_name", "object_type", "event_type",
		"changed_fields", "extra_data", "actor_id", "actor_name",
		"event_time", "hour", "fetched_at",
	},
	ConflictKey: []string{"object_id", "event_type", "event_time", "hour"},
	UpdateColumns: []string{
		"object_name", "object_type", "changed_fields", "extra_data",
		"actor_id", "actor_name", "fetched_at",
	},
}

var RegionInsights = Table{
	Name: "ad_insights_regionwise",
	Columns: []string{
		"ad_id", "impressions", "clicks", "ctr", "date_start", "date_stop",
		"region", "hour", "fetched_at",
	},
	ConflictKey:   []string{"ad_id", "date_start", "date_stop", "region", "hour"},
	UpdateColumns: []string{"impressions", "clicks", "ctr", "fetched_at"},
}

var Creatives = Table{
	Name: "ad_creatives",
	Columns: []string{
		"id", "name", "body", "title", "object_story_spec",
		"call_to_action_type", "hour", "fetched_at", "raw_data",
	},
	ConflictKey: []string{"id", "hour"},
	UpdateColumns: []string{
		"name", "body", "title", "object_story_spec", "call_to_action_type",
		"fetched_at", "raw_data",
	},
}

var Adsets = Table{
	Name: "adsets",
	Columns: []string{
		"id", "name", "campaign_id", "account_id", "status",
		"optimization_goal", "billing_event", "bid_strategy", "bid_amount",
		"daily_budget", "lifetime_budget", "budget_remaining",
		"start_time", "end_time", "created_time", "updated_time",
		"effective_status", "destination_type", "learning_stage_info",
		"attribution_spec", "promoted_object", "targeting", "pacing_type",
		"adlabels", "bid_adjustments", "bid_constraints", "adset_schedule",
		"issues_info", "creative_sequence", "daily_spend_cap",
		"lifetime_spend_cap", "daily_min_spend_target",
		"lifetime_min_spend_target", "is_dynamic_creative",
		"rf_prediction_id", "time_based_ad_rotation_id_blocks",
		"time_based_ad_rotation_intervals", "frequency_control_specs",
		"hour", "fetched_at", "raw_data",
	},
	ConflictKey: []string{"id", "hour"},
	UpdateColumns: []string{
		"name", "campaign_id", "account_id", "status", "optimization_goal",
		"billing_event", "bid_strategy", "bid_amount", "daily_budget",
		"lifetime_budget", "budget_remaining", "start_time", "end_time",
		"created_time", "updated_time", "effective_status",
		"destination_type", "learning_stage_info", "attribution_spec",
		"promoted_object", "targeting", "pacing_type", "adlabels",
		"bid_adjustments", "bid_constraints", "adset_schedule", "issues_info",
		"creative_sequence", "daily_spend_cap", "lifetime_spend_cap",
		"daily_min_spend_target", "lifetime_min_spend_target",
		"is_dynamic_creative", "rf_prediction_id",
		"time_based_ad_rotation_id_blocks",
		"time_based_ad_rotation_intervals", "frequency_control_specs",
		"fetched_at", "raw_data",
	},
}

var Ads = Table{
	Name: "ads",
	Columns: []string{
		"id", "name", "adset_id", "targeting", "insights", "hour",
		"fetched_at", "raw_data",
	},
	ConflictKey: []string{"id", "hour"},
	UpdateColumns: []string{
		"name", "adset_id", "targeting", "insights", "fetched_at", "raw_data",
	},
}

var InsightSnapshots = Table{
	Name: "ad_insights_hourly_snapshots",
	Columns: []string{
		"snapshot_hour", "ad_id", "adset_id", "campaign_id", "account_id",
		"date_start", "date_stop", "clicks", "impressions", "spend", "reach",
		"page_engagement", "post_engagement", "video_view",
		"landing_page_view", "purchase", "add_to_cart", "link_click",
		"post_reaction", "outbound_click", "purchase_value",
		"view_content_value", "add_to_cart_value", "ctr", "cpp",
		"video_p25_watched", "video_thruplay_watched", "created_at",
	},
	ConflictKey: []string{"snapshot_hour", "ad_id", "date_start", "date_stop"},
	UpdateColumns: []string{
		"adset_id", "campaign_id", "account_id", "clicks", "impressions",
		"spend", "reach", "page_engagement", "post_engagement", "video_view",
		"landing_page_view", "purchase", "add_to_cart", "link_click",
		"post_reaction", "outbound_click", "purchase_value",
		"view_content_value", "add_to_cart_value", "ctr", "cpp",
		"video_p25_watched", "video_thruplay_watched",
	},
}

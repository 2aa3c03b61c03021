package schema

// Campaign is the shape of one campaign record as returned by the account
// campaigns listing.
var Campaign = Schema{
	"id":                    {Type: TypeString, Required: true},
	"name":                  {Type: TypeString, Required: true},
	"status":                {Type: TypeString, Required: true},
	"objective":             {Type: TypeString, Nullable: true},
	"buying_type":           {Type: TypeString, Nullable: true},
	"special_ad_categories": {Type: TypeArray, Nullable: true},
	"start_time":            {Type: TypeString, Nullable: true, Format: FormatDatetime},
	"end_time":              {Type: TypeString, Nullable: true, Format: FormatDatetime},
}

// AdInsightsHourlySnapshot is the shape of one snapshot row prior to upsert.
var AdInsightsHourlySnapshot = Schema{
	"snapshot_hour":          {Type: TypeString, Required: true, Format: FormatDatetime},
	"ad_id":                  {Type: TypeString, Required: true},
	"adset_id":               {Type: TypeString, Required: true},
	"campaign_id":            {Type: TypeString, Required: true},
	"account_id":             {Type: TypeString, Required: true},
	"date_start":             {Type: TypeString, Required: true, Format: FormatDate},
	"date_stop":              {Type: TypeString, Required: true, Format: FormatDate},
	"clicks":                 {Type: TypeInteger, Nullable: true},
	"impressions":            {Type: TypeInteger, Nullable: true},
	"spend":                  {Type: TypeNumber, Nullable: true},
	"reach":                  {Type: TypeInteger, Nullable: true},
	"page_engagement":        {Type: TypeInteger, Nullable: true},
	"post_engagement":        {Type: TypeInteger, Nullable: true},
	"video_view":             {Type: TypeInteger, Nullable: true},
	"landing_page_view":      {Type: TypeInteger, Nullable: true},
	"purchase":               {Type: TypeInteger, Nullable: true},
	"add_to_cart":            {Type: TypeInteger, Nullable: true},
	"link_click":             {Type: TypeInteger, Nullable: true},
	"post_reaction":          {Type: TypeInteger, Nullable: true},
	"outbound_click":         {Type: TypeInteger, Nullable: true},
	"purchase_value":         {Type: TypeNumber, Nullable: true},
	"view_content_value":     {Type: TypeNumber, Nullable: true},
	"add_to_cart_value":      {Type: TypeNumber, Nullable: true},
	"ctr":                    {Type: TypeNumber, Nullable: true},
	"cpp":                    {Type: TypeNumber, Nullable: true},
	"video_p25_watched":      {Type: TypeInteger, Nullable: true},
	"video_thruplay_watched": {Type: TypeInteger, Nullable: true},
}

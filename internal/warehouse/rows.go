package warehouse

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Row is one reconcilable record. Values must return the row's column values
// in the owning Table's column order.
type Row interface {
	Values() []any
}

// CampaignRow is the current state of one campaign. Campaigns are the only
// entity not partitioned by hour; the hour column records when the state was
// last observed.
type CampaignRow struct {
	CampaignID          string
	AccountID           string
	Name                string
	Objective           *string
	Status              string
	BuyingType          *string
	SpecialAdCategories []string
	StartTime           *string
	EndTime             *string
	BudgetRemaining     *string
	DailyBudget         *string
	LifetimeBudget      *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Hour                string
	FetchedAt           time.Time
}

func (r CampaignRow) Values() []any {
	var categories any
	if r.SpecialAdCategories != nil {
		categories = pq.Array(r.SpecialAdCategories)
	}
	return []any{
		r.CampaignID, r.AccountID, r.Name, r.Objective, r.Status,
		r.BuyingType, categories, r.StartTime, r.EndTime,
		r.BudgetRemaining, r.DailyBudget, r.LifetimeBudget,
		r.CreatedAt, r.UpdatedAt, r.Hour, r.FetchedAt,
	}
}

// ActivityRow is one account-level change event.
type ActivityRow struct {
	ObjectID      *string
	ObjectName    *string
	ObjectType    *string
	EventType     *string
	ChangedFields *string
	ExtraData     *string
	ActorID       *string
	ActorName     *string
	EventTime     *string
	Hour          string
	FetchedAt     time.Time
}

func (r ActivityRow) Values() []any {
	return []any{
		r.ObjectID, r.ObjectName, r.ObjectType, r.EventType,
		r.ChangedFields, r.ExtraData, r.ActorID, r.ActorName,
		r.EventTime, r.Hour, r.FetchedAt,
	}
}

// RegionInsightRow is one ad's performance within one region for the day.
// Metrics stay as upstream strings; this table is a raw landing zone.
type RegionInsightRow struct {
	AdID        *string
	Impressions *string
	Clicks      *string
	CTR         *string
	DateStart   *string
	DateStop    *string
	Region      *string
	Hour        string
	FetchedAt   time.Time
}

func (r RegionInsightRow) Values() []any {
	return []any{
		r.AdID, r.Impressions, r.Clicks, r.CTR, r.DateStart, r.DateStop,
		r.Region, r.Hour, r.FetchedAt,
	}
}

// CreativeRow is the hourly snapshot of one ad creative.
type CreativeRow struct {
	ID               *string
	Name             *string
	Body             *string
	Title            *string
	ObjectStorySpec  *string
	CallToActionType *string
	Hour             string
	FetchedAt        time.Time
	RawData          string
}

func (r CreativeRow) Values() []any {
	return []any{
		r.ID, r.Name, r.Body, r.Title, r.ObjectStorySpec,
		r.CallToActionType, r.Hour, r.FetchedAt, r.RawData,
	}
}

// AdsetRow is the hourly snapshot of one ad set. Structured sub-documents
// (targeting, schedules, specs) are stored verbatim as serialized JSON.
type AdsetRow struct {
	ID                           *string
	Name                         *string
	CampaignID                   *string
	AccountID                    *string
	Status                       *string
	OptimizationGoal             *string
	BillingEvent                 *string
	BidStrategy                  *string
	BidAmount                    *int64
	DailyBudget                  *string
	LifetimeBudget               *string
	BudgetRemaining              *string
	StartTime                    *string
	EndTime                      *string
	CreatedTime                  *string
	UpdatedTime                  *string
	EffectiveStatus              *string
	DestinationType              *string
	LearningStageInfo            *string
	AttributionSpec              *string
	PromotedObject               *string
	Targeting                    *string
	PacingType                   *string
	AdLabels                     *string
	BidAdjustments               *string
	BidConstraints               *string
	AdsetSchedule                *string
	IssuesInfo                   *string
	CreativeSequence             *string
	DailySpendCap                *string
	LifetimeSpendCap             *string
	DailyMinSpendTarget          *string
	LifetimeMinSpendTarget       *string
	IsDynamicCreative            *bool
	RFPredictionID               *string
	TimeBasedAdRotationIDBlocks  *string
	TimeBasedAdRotationIntervals *string
	FrequencyControlSpecs        *string
	Hour                         string
	FetchedAt                    time.Time
	RawData                      string
}

func (r AdsetRow) Values() []any {
	return []any{
		r.ID, r.Name, r.CampaignID, r.AccountID, r.Status,
		r.OptimizationGoal, r.BillingEvent, r.BidStrategy, r.BidAmount,
		r.DailyBudget, r.LifetimeBudget, r.BudgetRemaining,
		r.StartTime, r.EndTime, r.CreatedTime, r.UpdatedTime,
		r.EffectiveStatus, r.DestinationType, r.LearningStageInfo,
		r.AttributionSpec, r.PromotedObject, r.Targeting, r.PacingType,
		r.AdLabels, r.BidAdjustments, r.BidConstraints, r.AdsetSchedule,
		r.IssuesInfo, r.CreativeSequence, r.DailySpendCap,
		r.LifetimeSpendCap, r.DailyMinSpendTarget, r.LifetimeMinSpendTarget,
		r.IsDynamicCreative, r.RFPredictionID, r.TimeBasedAdRotationIDBlocks,
		r.TimeBasedAdRotationIntervals, r.FrequencyControlSpecs,
		r.Hour, r.FetchedAt, r.RawData,
	}
}

// AdRow is the hourly snapshot of one ad with its embedded targeting and
// lifetime insight document.
type AdRow struct {
	ID        string
	Name      *string
	AdsetID   *string
	Targeting *string
	Insights  *string
	Hour      string
	FetchedAt time.Time
	RawData   string
}

func (r AdRow) Values() []any {
	return []any{
		r.ID, r.Name, r.AdsetID, r.Targeting, r.Insights, r.Hour,
		r.FetchedAt, r.RawData,
	}
}

// InsightSnapshotRow is one ad's hourly performance snapshot. Money columns
// use decimals to match the warehouse NUMERIC types; the derived ratio
// columns are generated by the warehouse and never written here.
type InsightSnapshotRow struct {
	SnapshotHour         time.Time
	AdID                 string
	AdsetID              string
	CampaignID           string
	AccountID            string
	DateStart            string
	DateStop             string
	Clicks               int64
	Impressions          int64
	Spend                decimal.Decimal
	Reach                int64
	PageEngagement       int64
	PostEngagement       int64
	VideoView            int64
	LandingPageView      int64
	Purchase             int64
	AddToCart            int64
	LinkClick            int64
	PostReaction         int64
	OutboundClick        int64
	PurchaseValue        decimal.Decimal
	ViewContentValue     decimal.Decimal
	AddToCartValue       decimal.Decimal
	CTR                  float64
	CPP                  float64
	VideoP25Watched      int64
	VideoThruplayWatched int64
	CreatedAt            time.Time
}

func (r InsightSnapshotRow) Values() []any {
	return []any{
		r.SnapshotHour, r.AdID, r.AdsetID, r.CampaignID, r.AccountID,
		r.DateStart, r.DateStop, r.Clicks, r.Impressions, r.Spend, r.Reach,
		r.PageEngagement, r.PostEngagement, r.VideoView, r.LandingPageView,
		r.Purchase, r.AddToCart, r.LinkClick, r.PostReaction,
		r.OutboundClick, r.PurchaseValue, r.ViewContentValue,
		r.AddToCartValue, r.CTR, r.CPP, r.VideoP25Watched,
		r.VideoThruplayWatched, r.CreatedAt,
	}
}

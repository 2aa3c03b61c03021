// Package etl orchestrates the hourly pipeline: a fixed sequence of
// extract-then-reconcile steps, each isolated so one entity type's failure
// never aborts the others.
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/adsync/internal/extract"
	"github.com/angelmondragon/adsync/internal/warehouse"
	pkgerrors "github.com/angelmondragon/adsync/pkg/errors"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/metrics"
	"github.com/google/uuid"
)

// Step names, in execution order. Later steps consume state committed by
// earlier ones: adsets filter against persisted campaigns, and the insight
// step synthesizes rows from the ads step's fetched list.
const (
	StepCampaigns       = "campaigns"
	StepActivityHistory = "activity_history"
	StepRegionInsights  = "regionwise_insights"
	StepCreatives       = "ad_creatives"
	StepAdsets          = "adsets"
	StepAds             = "ads"
	StepHourlyInsights  = "hourly_insights"
)

// Store is the warehouse surface the pipeline consumes.
type Store interface {
	BulkUpsert(ctx context.Context, table warehouse.Table, rows []warehouse.Row) (int, error)
	CampaignIDs(ctx context.Context) (map[string]struct{}, error)
	Ping(ctx context.Context) error
}

// Options wires a Pipeline.
type Options struct {
	Fetcher  extract.Fetcher
	Store    Store
	Logger   *logger.Logger
	Metrics  *metrics.StepMetrics
	Location *time.Location

	// Now is swapped out in tests.
	Now func() time.Time
}

// Pipeline runs one full pass over every extraction step.
type Pipeline struct {
	fetcher extract.Fetcher
	store   Store
	logg    *logger.Logger
	metrics *metrics.StepMetrics
	loc     *time.Location
	now     func() time.Time
}

func New(opts Options) *Pipeline {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		fetcher: opts.Fetcher,
		store:   opts.Store,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		loc:     opts.Location,
		now:     now,
	}
}

// RunParams tunes a single pass. Since/Until bound the activity-history
// window as calendar dates; both default to the run's date.
type RunParams struct {
	Since string
	Until string
}

// Run executes every step in order and returns the aggregate report. Only a
// warehouse connectivity failure aborts the run; individual step failures
// are recorded and the remaining steps still execute.
func (p *Pipeline) Run(ctx context.Context, params RunParams) *Report {
	runID := uuid.NewString()
	ctx = p.logg.WithRunID(ctx, runID)

	report := &Report{RunID: runID, StartedAt: p.now()}
	defer func() {
		report.FinishedAt = p.now()
		p.logg.Info(ctx, report.Summary())
	}()

	p.logg.Info(ctx, "pipeline run started")

	if err := p.store.Ping(ctx); err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "warehouse unreachable")
		p.logg.Error(ctx, "aborting run, warehouse unreachable", err)
		report.Steps = append(report.Steps, StepResult{Name: "setup", Err: err})
		return report
	}

	stamp := extract.NewStamp(p.now(), p.loc)
	since, until := params.Since, params.Until
	if since == "" {
		since = stamp.Date()
	}
	if until == "" {
		until = stamp.Date()
	}

	report.Steps = append(report.Steps, p.runStep(ctx, StepCampaigns, func(ctx context.Context) (int, error) {
		rows, err := extract.Campaigns(ctx, p.fetcher, stamp, p.logg)
		if err != nil {
			return 0, err
		}
		return p.store.BulkUpsert(ctx, warehouse.Campaigns, rows)
	}))

	report.Steps = append(report.Steps, p.runStep(ctx, StepActivityHistory, func(ctx context.Context) (int, error) {
		rows, err := extract.Activities(ctx, p.fetcher, stamp, since, until, p.logg)
		if err != nil {
			return 0, err
		}
		return p.store.BulkUpsert(ctx, warehouse.Activities, rows)
	}))

	report.Steps = append(report.Steps, p.runStep(ctx, StepRegionInsights, func(ctx context.Context) (int, error) {
		rows, err := extract.RegionInsights(ctx, p.fetcher, stamp, p.logg)
		if err != nil {
			return 0, err
		}
		return p.store.BulkUpsert(ctx, warehouse.RegionInsights, rows)
	}))

	report.Steps = append(report.Steps, p.runStep(ctx, StepCreatives, func(ctx context.Context) (int, error) {
		rows, err := extract.Creatives(ctx, p.fetcher, stamp, p.logg)
		if err != nil {
			return 0, err
		}
		return p.store.BulkUpsert(ctx, warehouse.Creatives, rows)
	}))

	report.Steps = append(report.Steps, p.runStep(ctx, StepAdsets, func(ctx context.Context) (int, error) {
		adsets, err := extract.Adsets(ctx, p.fetcher, stamp, p.logg)
		if err != nil {
			return 0, err
		}
		existing, err := p.store.CampaignIDs(ctx)
		if err != nil {
			return 0, err
		}
		kept := filterAdsets(ctx, adsets, existing, p.logg)
		rows := make([]warehouse.Row, 0, len(kept))
		for _, adset := range kept {
			rows = append(rows, adset)
		}
		return p.store.BulkUpsert(ctx, warehouse.Adsets, rows)
	}))

	// The insight step consumes the ads fetched here; an ads failure leaves
	// the list empty rather than failing the insight step.
	var ads []warehouse.AdRow
	report.Steps = append(report.Steps, p.runStep(ctx, StepAds, func(ctx context.Context) (int, error) {
		fetched, err := extract.Ads(ctx, p.fetcher, stamp, p.logg)
		if err != nil {
			return 0, err
		}
		rows := make([]warehouse.Row, 0, len(fetched))
		for _, ad := range fetched {
			rows = append(rows, ad)
		}
		n, err := p.store.BulkUpsert(ctx, warehouse.Ads, rows)
		if err != nil {
			return 0, err
		}
		ads = fetched
		return n, nil
	}))

	report.Steps = append(report.Steps, p.runStep(ctx, StepHourlyInsights, func(ctx context.Context) (int, error) {
		adIDs := make([]string, 0, len(ads))
		for _, ad := range ads {
			adIDs = append(adIDs, ad.ID)
		}
		insights, err := extract.AdInsights(ctx, p.fetcher, adIDs, p.logg)
		if err != nil {
			return 0, err
		}
		insights = extract.SynthesizeMissingInsights(insights, ads, stamp, p.fetcher.AccountID())
		rows := extract.InsightRows(ctx, insights, stamp, p.logg)
		return p.store.BulkUpsert(ctx, warehouse.InsightSnapshots, rows)
	}))

	return report
}

func (p *Pipeline) runStep(ctx context.Context, name string, fn func(context.Context) (int, error)) (result StepResult) {
	result.Name = name
	ctx = p.logg.WithStep(ctx, name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("step panicked: %v", r)
		}
		p.metrics.ObserveDuration(name, time.Since(start))
		if result.Err != nil {
			p.metrics.IncFailure(name)
			p.logg.Error(ctx, "step failed", result.Err)
			return
		}
		p.metrics.IncSuccess(name)
		p.metrics.AddRows(name, result.Rows)
		p.logg.Info(p.logg.WithField(ctx, "rows", result.Rows), "step completed")
	}()

	p.logg.Info(ctx, "step started")
	result.Rows, result.Err = fn(ctx)
	return result
}

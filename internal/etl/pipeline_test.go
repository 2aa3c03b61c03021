package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
	"github.com/angelmondragon/adsync/pkg/meta"
	"github.com/rs/zerolog"
)

type fakeFetcher struct {
	campaigns  []map[string]any
	activities []map[string]any
	regionwise []map[string]any
	creatives  []map[string]any
	adsets     []map[string]any
	ads        []map[string]any
	insights   []map[string]any
}

func (f *fakeFetcher) AccountID() string { return "999" }

func (f *fakeFetcher) AccountPath(version, resource string) string {
	return fmt.Sprintf("/%s/act_999/%s", version, resource)
}

func (f *fakeFetcher) ObjectPath(version, objectID, resource string) string {
	if resource == "" {
		return fmt.Sprintf("/%s/%s", version, objectID)
	}
	return fmt.Sprintf("/%s/%s/%s", version, objectID, resource)
}

func (f *fakeFetcher) GetAllPages(_ context.Context, rawURL string, params url.Values) ([]map[string]any, error) {
	switch {
	case strings.Contains(rawURL, "/campaigns"):
		return f.campaigns, nil
	case strings.Contains(rawURL, "/activities"):
		return f.activities, nil
	case strings.Contains(rawURL, "/adcreatives"):
		return f.creatives, nil
	case strings.Contains(rawURL, "/adsets"):
		return f.adsets, nil
	case strings.Contains(rawURL, "/insights") && params.Get("breakdowns") == "region":
		return f.regionwise, nil
	case strings.Contains(rawURL, "/insights"):
		return f.insights, nil
	default:
		return nil, fmt.Errorf("unexpected url %q", rawURL)
	}
}

func (f *fakeFetcher) GetWithBackoff(_ context.Context, rawURL string, _ url.Values) (*meta.Page, error) {
	return nil, fmt.Errorf("unexpected GetWithBackoff %q", rawURL)
}

func (f *fakeFetcher) GetNestedWithBackoff(_ context.Context, _ string, _ url.Values, field string) (*meta.Page, error) {
	if field != "ads" {
		return nil, fmt.Errorf("unexpected nested field %q", field)
	}
	return &meta.Page{Data: f.ads}, nil
}

type fakeStore struct {
	upserts     map[string][]warehouse.Row
	failTables  map[string]error
	panicTables map[string]bool
	pingErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		upserts:     map[string][]warehouse.Row{},
		failTables:  map[string]error{},
		panicTables: map[string]bool{},
	}
}

func (s *fakeStore) BulkUpsert(_ context.Context, table warehouse.Table, rows []warehouse.Row) (int, error) {
	if s.panicTables[table.Name] {
		panic("write exploded")
	}
	if err := s.failTables[table.Name]; err != nil {
		return 0, err
	}
	s.upserts[table.Name] = append(s.upserts[table.Name], rows...)
	return len(rows), nil
}

// CampaignIDs reflects what the run itself has persisted so far, mirroring
// the read-after-commit dependency between the campaign and adset steps.
func (s *fakeStore) CampaignIDs(context.Context) (map[string]struct{}, error) {
	existing := map[string]struct{}{}
	for _, row := range s.upserts[warehouse.Campaigns.Name] {
		existing[row.(warehouse.CampaignRow).CampaignID] = struct{}{}
	}
	return existing, nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func fixtureFetcher() *fakeFetcher {
	return &fakeFetcher{
		campaigns: []map[string]any{
			{"id": "c1", "name": "Launch", "status": "ACTIVE"},
		},
		activities: []map[string]any{
			{"object_id": "c1", "event_type": "UPDATE", "event_time": "2025-02-01T09:12:00+0000"},
		},
		regionwise: []map[string]any{
			{"ad_id": "a1", "impressions": "10", "clicks": "1", "ctr": "10", "region": "Maharashtra",
				"date_start": "2025-02-01", "date_stop": "2025-02-01"},
		},
		creatives: []map[string]any{
			{"id": "cr1", "name": "Hero image"},
		},
		adsets: []map[string]any{
			{"id": "as1", "campaign_id": "c1", "name": "Core audience"},
			{"id": "as2", "campaign_id": "ghost", "name": "Orphan"},
		},
		ads: []map[string]any{
			{"id": "a1", "adset_id": "as1"},
			{"id": "a2", "adset_id": "as1"},
		},
		insights: []map[string]any{
			{"ad_id": "a1", "adset_id": "as1", "campaign_id": "c1", "account_id": "999",
				"date_start": "2025-02-01", "date_stop": "2025-02-01",
				"clicks": "5", "impressions": "100", "spend": "2.50"},
		},
	}
}

func newTestPipeline(fetcher *fakeFetcher, store *fakeStore) *Pipeline {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return New(Options{
		Fetcher:  fetcher,
		Store:    store,
		Logger:   logger.New(logger.Options{Output: io.Discard, Level: zerolog.ErrorLevel}),
		Location: loc,
		Now:      func() time.Time { return time.Date(2025, 2, 1, 4, 30, 0, 0, time.UTC) },
	})
}

func TestRunExecutesAllStepsInOrder(t *testing.T) {
	store := newFakeStore()
	report := newTestPipeline(fixtureFetcher(), store).Run(context.Background(), RunParams{})

	if err := report.Err(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	wantOrder := []string{
		StepCampaigns, StepActivityHistory, StepRegionInsights,
		StepCreatives, StepAdsets, StepAds, StepHourlyInsights,
	}
	if len(report.Steps) != len(wantOrder) {
		t.Fatalf("got %d steps, want %d", len(report.Steps), len(wantOrder))
	}
	for i, name := range wantOrder {
		if report.Steps[i].Name != name {
			t.Errorf("step[%d] = %s, want %s", i, report.Steps[i].Name, name)
		}
	}

	if n := len(store.upserts[warehouse.Campaigns.Name]); n != 1 {
		t.Errorf("campaigns upserted = %d, want 1", n)
	}
	// The orphan adset is filtered; only as1 persists.
	if n := len(store.upserts[warehouse.Adsets.Name]); n != 1 {
		t.Errorf("adsets upserted = %d, want 1", n)
	}
	// Two ads, one real insight: the second ad gets a synthesized zero row.
	if n := len(store.upserts[warehouse.InsightSnapshots.Name]); n != 2 {
		t.Errorf("insight snapshots upserted = %d, want 2", n)
	}
}

func TestRunStepFailureDoesNotBlockLaterSteps(t *testing.T) {
	store := newFakeStore()
	store.failTables[warehouse.Adsets.Name] = errors.New("disk full")

	report := newTestPipeline(fixtureFetcher(), store).Run(context.Background(), RunParams{})

	if report.Err() == nil {
		t.Fatal("expected aggregate error")
	}
	var adsetStep, adsStep *StepResult
	for i := range report.Steps {
		switch report.Steps[i].Name {
		case StepAdsets:
			adsetStep = &report.Steps[i]
		case StepAds:
			adsStep = &report.Steps[i]
		}
	}
	if adsetStep == nil || !adsetStep.Failed() {
		t.Fatal("adset step should have failed")
	}
	if adsStep == nil || adsStep.Failed() {
		t.Fatal("ads step should have run and succeeded")
	}
	if n := len(store.upserts[warehouse.Ads.Name]); n != 2 {
		t.Fatalf("ads upserted = %d, want 2", n)
	}
}

func TestRunRecoversFromStepPanic(t *testing.T) {
	store := newFakeStore()
	store.panicTables[warehouse.Creatives.Name] = true

	report := newTestPipeline(fixtureFetcher(), store).Run(context.Background(), RunParams{})

	var creativeStep *StepResult
	for i := range report.Steps {
		if report.Steps[i].Name == StepCreatives {
			creativeStep = &report.Steps[i]
		}
	}
	if creativeStep == nil || creativeStep.Err == nil {
		t.Fatal("creative step should record the panic as a failure")
	}
	if len(report.Steps) != 7 {
		t.Fatalf("later steps must still run, got %d steps", len(report.Steps))
	}
}

func TestRunAdsFailureLeavesInsightStepWithNoAds(t *testing.T) {
	store := newFakeStore()
	store.failTables[warehouse.Ads.Name] = errors.New("write refused")

	report := newTestPipeline(fixtureFetcher(), store).Run(context.Background(), RunParams{})

	var insightStep *StepResult
	for i := range report.Steps {
		if report.Steps[i].Name == StepHourlyInsights {
			insightStep = &report.Steps[i]
		}
	}
	if insightStep == nil || insightStep.Failed() {
		t.Fatal("insight step should succeed with an empty ad list")
	}
	if insightStep.Rows != 0 {
		t.Fatalf("insight rows = %d, want 0", insightStep.Rows)
	}
}

func TestRunAbortsWhenWarehouseUnreachable(t *testing.T) {
	store := newFakeStore()
	store.pingErr = errors.New("connection refused")

	report := newTestPipeline(fixtureFetcher(), store).Run(context.Background(), RunParams{})

	if report.Err() == nil {
		t.Fatal("expected a run-fatal error")
	}
	if len(report.Steps) != 1 || report.Steps[0].Name != "setup" {
		t.Fatalf("expected only the setup step, got %+v", report.Steps)
	}
	if len(store.upserts) != 0 {
		t.Fatal("no step may write when setup fails")
	}
}

func TestFilterAdsetsPartition(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard, Level: zerolog.ErrorLevel})
	c1, ghost := "c1", "ghost"
	adsets := []warehouse.AdsetRow{
		{CampaignID: &c1},
		{CampaignID: &ghost},
		{CampaignID: nil},
		{CampaignID: &c1},
	}

	kept := filterAdsets(context.Background(), adsets, map[string]struct{}{"c1": {}}, logg)
	if len(kept) != 2 {
		t.Fatalf("kept %d adsets, want 2", len(kept))
	}
	for _, adset := range kept {
		if adset.CampaignID == nil || *adset.CampaignID != "c1" {
			t.Fatalf("unexpected kept adset: %+v", adset)
		}
	}
}

func TestServiceRejectsOverlappingRuns(t *testing.T) {
	store := newFakeStore()
	pipeline := newTestPipeline(fixtureFetcher(), store)
	svc := NewService(pipeline, time.Hour, logger.New(logger.Options{Output: io.Discard, Level: zerolog.ErrorLevel}))

	svc.mu.Lock()
	_, err := svc.TriggerRun(context.Background(), RunParams{})
	svc.mu.Unlock()

	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	report, err := svc.TriggerRun(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("TriggerRun after release: %v", err)
	}
	if report == nil || len(report.Steps) != 7 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

package extract

import (
	"context"
	"net/url"
	"testing"

	"github.com/angelmondragon/adsync/pkg/meta"
)

func TestAdsUnwrapsNestedListingAndFollowsPaging(t *testing.T) {
	nextURL := "https://graph.example.com/v18.0/act_999/ads?after=abc"
	fetcher := &fakeFetcher{
		getNested: func(rawURL string, params url.Values, field string) (*meta.Page, error) {
			if rawURL != "/v18.0/act_999" || field != "ads" {
				t.Fatalf("unexpected nested request %q field %q", rawURL, field)
			}
			page := &meta.Page{Data: []map[string]any{
				{"id": "a1", "name": "Ad one", "adset_id": "as1",
					"targeting": map[string]any{"age_min": float64(18)}},
			}}
			page.Paging.Next = nextURL
			return page, nil
		},
		getAllPages: func(rawURL string, params url.Values) ([]map[string]any, error) {
			if rawURL != nextURL {
				t.Fatalf("unexpected continuation url %q", rawURL)
			}
			if params != nil {
				t.Fatal("params must not be re-applied to continuation pages")
			}
			return []map[string]any{{"id": "a2", "adset_id": "as2"}}, nil
		},
	}

	rows, err := Ads(context.Background(), fetcher, testStamp(), testLogger())
	if err != nil {
		t.Fatalf("Ads: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ID != "a1" || rows[1].ID != "a2" {
		t.Fatalf("unexpected ids: %+v", rows)
	}
	if rows[0].Targeting == nil || *rows[0].Targeting != `{"age_min":18}` {
		t.Fatalf("targeting = %v", rows[0].Targeting)
	}
	if rows[1].Insights != nil {
		t.Fatal("absent insights should stay nil")
	}
}

func TestAdsRateLimitedFirstPageYieldsNoAds(t *testing.T) {
	fetcher := &fakeFetcher{
		getNested: func(string, url.Values, string) (*meta.Page, error) {
			return nil, meta.ErrRateLimited
		},
	}

	rows, err := Ads(context.Background(), fetcher, testStamp(), testLogger())
	if err != nil {
		t.Fatalf("rate limit must not fail the step: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestAdsDropsRecordsWithoutID(t *testing.T) {
	fetcher := &fakeFetcher{
		getNested: func(string, url.Values, string) (*meta.Page, error) {
			return &meta.Page{Data: []map[string]any{
				{"name": "orphan"},
				{"id": "a1"},
			}}, nil
		},
	}

	rows, err := Ads(context.Background(), fetcher, testStamp(), testLogger())
	if err != nil {
		t.Fatalf("Ads: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "a1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

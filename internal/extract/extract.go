// Package extract pulls raw entity records from the Graph API, normalizes
// and validates them, and projects them into warehouse rows stamped with the
// run's hour bucket.
package extract

import (
	"context"
	"net/url"
	"time"

	"github.com/angelmondragon/adsync/pkg/meta"
)

// Fetcher is the slice of the Graph client the extractors consume.
type Fetcher interface {
	AccountID() string
	AccountPath(version, resource string) string
	ObjectPath(version, objectID, resource string) string
	GetAllPages(ctx context.Context, rawURL string, params url.Values) ([]map[string]any, error)
	GetWithBackoff(ctx context.Context, rawURL string, params url.Values) (*meta.Page, error)
	GetNestedWithBackoff(ctx context.Context, rawURL string, params url.Values, field string) (*meta.Page, error)
}

// Stamp carries the run's time annotations. Hour is the run start truncated
// to the hour in the pipeline timezone; every row written during the run
// shares it.
type Stamp struct {
	Hour      time.Time
	FetchedAt time.Time
}

// NewStamp buckets now into loc. The bucket is built from the wall-clock
// fields in loc rather than by duration truncation, which would misalign for
// offsets that are not whole hours.
func NewStamp(now time.Time, loc *time.Location) Stamp {
	local := now.In(loc)
	hour := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	return Stamp{Hour: hour, FetchedAt: local}
}

// HourString renders the bucket in the offset-qualified form stored in the
// hour column, e.g. 2025-02-01T10:00:00+05:30.
func (s Stamp) HourString() string {
	return s.Hour.Format("2006-01-02T15:04:05-07:00")
}

// Date is the run's calendar date in the pipeline timezone.
func (s Stamp) Date() string {
	return s.FetchedAt.Format("2006-01-02")
}

package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/adsync/pkg/db"
	pkgerrors "github.com/angelmondragon/adsync/pkg/errors"
	"github.com/angelmondragon/adsync/pkg/logger"
	"gorm.io/gorm"
)

// Store reconciles row batches into the warehouse. All timestamp-bearing
// writes happen under a session pinned to the pipeline timezone so TIMESTAMP
// columns land in warehouse-local wall-clock time.
type Store struct {
	client   *db.Client
	logg     *logger.Logger
	timezone string
}

func NewStore(client *db.Client, logg *logger.Logger, timezone string) *Store {
	return &Store{client: client, logg: logg, timezone: timezone}
}

// BulkUpsert inserts the batch in one statement, updating the table's mutable
// columns when the natural key already exists. The write is transactional:
// either every row in the batch lands or none do. Empty batches are a no-op.
func (s *Store) BulkUpsert(ctx context.Context, table Table, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := buildUpsertQuery(table, len(rows))
	args := make([]any, 0, len(rows)*len(table.Columns))
	for _, row := range rows {
		values := row.Values()
		if len(values) != len(table.Columns) {
			return 0, fmt.Errorf("row for %s has %d values, want %d", table.Name, len(values), len(table.Columns))
		}
		args = append(args, values...)
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("SET TIME ZONE '%s'", s.timezone)).Error; err != nil {
			return fmt.Errorf("setting session timezone: %w", err)
		}
		return tx.Exec(query, args...).Error
	})
	if err != nil {
		s.logg.Error(ctx, fmt.Sprintf("bulk upsert into %s failed", table.Name), err)
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("upserting %s", table.Name))
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"table": table.Name, "rows": len(rows)})
	s.logg.Info(ctx, "bulk upsert committed")
	return len(rows), nil
}

// CampaignIDs returns the set of campaign keys currently persisted, consumed
// by the ad-set consistency filter.
func (s *Store) CampaignIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.client.Raw(ctx, "SELECT campaign_id FROM dim_campaign").Scan(&ids).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading campaign keys")
	}

	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	return existing, nil
}

// Ping reports warehouse reachability; a failure here is run-fatal.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func buildUpsertQuery(table Table, rowCount int) string {
	var b strings.Builder

	b.WriteString("INSERT INTO ")
	b.WriteString(table.Name)
	b.WriteString(" (")
	b.WriteString(strings.Join(table.Columns, ", "))
	b.WriteString(") VALUES ")

	placeholder := 1
	for i := 0; i < rowCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range table.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", placeholder)
			placeholder++
		}
		b.WriteString(")")
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(strings.Join(table.ConflictKey, ", "))
	b.WriteString(") DO UPDATE SET ")
	for i, col := range table.UpdateColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString("=EXCLUDED.")
		b.WriteString(col)
	}

	return b.String()
}

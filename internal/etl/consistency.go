package etl

import (
	"context"
	"strings"

	"github.com/angelmondragon/adsync/internal/warehouse"
	"github.com/angelmondragon/adsync/pkg/logger"
)

// filterAdsets partitions the batch by whether each ad set's campaign key is
// already persisted, keeping only rows with an existing parent. The warehouse
// has no foreign key on adsets.campaign_id; this filter is the only thing
// standing between the table and orphaned references.
func filterAdsets(ctx context.Context, adsets []warehouse.AdsetRow, existing map[string]struct{}, logg *logger.Logger) []warehouse.AdsetRow {
	kept := make([]warehouse.AdsetRow, 0, len(adsets))
	var missing []string

	for _, adset := range adsets {
		if adset.CampaignID != nil {
			if _, ok := existing[*adset.CampaignID]; ok {
				kept = append(kept, adset)
				continue
			}
		}
		key := "<nil>"
		if adset.CampaignID != nil {
			key = *adset.CampaignID
		}
		missing = append(missing, key)
	}

	if len(missing) > 0 {
		warnCtx := logg.WithFields(ctx, map[string]any{
			"dropped":      len(missing),
			"campaign_ids": strings.Join(missing, ","),
		})
		logg.Warn(warnCtx, "dropping adsets with missing parent campaigns")
	}

	return kept
}

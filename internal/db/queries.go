package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
)

// upsertBatchSize bounds the number of items sent in one UPSERT query.
const upsertBatchSize = 100

// ListItems returns every catalog item ordered by ID.
func (c *Client) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	defer c.metrics.Since(metrics.OpStoreRead, time.Now())

	results, err := surrealdb.Query[[]itemRecord](ctx, c.db, `SELECT * FROM item ORDER BY id`, nil)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.CatalogItem{}, nil
	}

	records := (*results)[0].Result
	items := make([]models.CatalogItem, 0, len(records))
	for _, r := range records {
		item, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// UpsertItems creates or updates items by ID. Usage fields of existing items are preserved.
func (c *Client) UpsertItems(ctx context.Context, items []models.CatalogItem) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	for start := 0; start < len(items); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(items))

		batch := make([]map[string]any, 0, end-start)
		for _, item := range items[start:end] {
			batch = append(batch, map[string]any{"id": item.ID, "fields": importFields(item)})
		}

		_, err := surrealdb.Query[any](ctx, c.db, `
			FOR $it IN $items {
				UPSERT type::record("item", $it.id) MERGE $it.fields;
			};
		`, map[string]any{"items": batch})
		if err != nil {
			return fmt.Errorf("upsert items: %w", wrapQueryError(err))
		}
	}
	return nil
}

// ListProductions returns all productions, oldest first.
func (c *Client) ListProductions(ctx context.Context) ([]models.Production, error) {
	defer c.metrics.Since(metrics.OpStoreRead, time.Now())

	results, err := surrealdb.Query[[]productionRecord](ctx, c.db,
		`SELECT * FROM production ORDER BY created_at ASC, id ASC`, nil)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []models.Production{}, nil
	}

	out := make([]models.Production, 0, len((*results)[0].Result))
	for _, r := range (*results)[0].Result {
		p, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("list productions: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// commitAttempts bounds retries of a commit that hit a transaction conflict.
const commitAttempts = 3

// commitSQL creates the production and stamps usage in one transaction.
// Unknown item IDs abort it before anything is written.
const commitSQL = `
	BEGIN TRANSACTION;
	LET $missing = array::complement($ids, (SELECT VALUE record::id(id) FROM $rids));
	IF array::len($missing) > 0 {
		THROW "` + unknownItemsMarker + `: " + array::join($missing, ", ");
	};
	CREATE type::record("production", $production) CONTENT $data;
	UPDATE $rids SET
		times_used += 1,
		last_used_production = $production,
		last_used_at = $at;
	COMMIT TRANSACTION;
`

// CommitProduction stores p and increments times_used on every listed item in
// one transaction. A known production ID yields models.ErrProductionExists and
// unknown item IDs yield models.ErrUnknownItem; nothing is written in either case.
func (c *Client) CommitProduction(ctx context.Context, p models.Production, itemIDs []string, at time.Time) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())

	data := map[string]any{
		"number":         p.Number,
		"title":          p.Title,
		"target_minutes": p.TargetMinutes,
		"created_at":     p.CreatedAt,
	}
	if p.PublishedAt != nil {
		data["published_at"] = *p.PublishedAt
	}

	rids := make([]surrealmodels.RecordID, 0, len(itemIDs))
	for _, id := range itemIDs {
		rids = append(rids, surrealmodels.NewRecordID("item", id))
	}
	vars := map[string]any{
		"production": p.ID,
		"data":       data,
		"ids":        nonNil(itemIDs),
		"rids":       rids,
		"at":         at,
	}

	var err error
	for attempt := 1; attempt <= commitAttempts; attempt++ {
		_, err = surrealdb.Query[any](ctx, c.db, commitSQL, vars)
		err = wrapQueryError(err)
		if !errors.Is(err, ErrCommitConflict) {
			break
		}
		c.log.Debug("commit conflict, retrying", "production", p.ID, "attempt", attempt)
	}
	if err != nil {
		return fmt.Errorf("commit production: %w", err)
	}
	return nil
}

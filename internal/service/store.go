// Package service wires the catalog store, the embedder and the matching engine
// into the plan, commit and catalog workflows.
package service

import (
	"context"
	"time"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// Store persists the catalog and production history.
// Implemented by db.Client (SurrealDB) and catalog.FileStore (YAML on disk).
type Store interface {
	ListItems(ctx context.Context) ([]models.CatalogItem, error)
	// UpsertItems creates or updates items by ID and keeps existing usage fields.
	UpsertItems(ctx context.Context, items []models.CatalogItem) error
	// ListProductions returns the history, oldest first.
	ListProductions(ctx context.Context) ([]models.Production, error)
	// CommitProduction stores p and increments usage of itemIDs atomically.
	// It is the only writer of usage fields. Either both writes land or neither does.
	CommitProduction(ctx context.Context, p models.Production, itemIDs []string, at time.Time) error
	Close(ctx context.Context) error
}

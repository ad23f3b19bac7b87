package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/playlist"
)

// ErrEmptyPlaylist is returned when committing a playlist with no selected items.
var ErrEmptyPlaylist = errors.New("playlist has no selected items")

// ErrUnknownItems is returned when a playlist references items missing from the catalog.
var ErrUnknownItems = errors.New("playlist references unknown items")

// CommitService records a finished production and updates item usage.
type CommitService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCommitService creates a commit service. logger may be nil.
func NewCommitService(store Store, logger *slog.Logger) *CommitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CommitOptions configures a commit.
type CommitOptions struct {
	PublishedAt *time.Time
}

// Commit stores the production and increments usage for every selected item.
// The production number is one past the stored history. A failed commit leaves
// nothing behind and can be retried; committing the same playlist twice fails
// with models.ErrProductionExists.
func (s *CommitService) Commit(ctx context.Context, pl *playlist.Playlist, opts CommitOptions) (*models.Production, error) {
	ids := pl.ItemIDs()
	if len(ids) == 0 {
		return nil, ErrEmptyPlaylist
	}

	catalog, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("commit: load catalog: %w", err)
	}
	known := make(map[string]struct{}, len(catalog))
	for _, it := range catalog {
		known[it.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("commit: %w: %v", ErrUnknownItems, missing)
	}

	history, err := s.store.ListProductions(ctx)
	if err != nil {
		return nil, fmt.Errorf("commit: load history: %w", err)
	}

	id := pl.ProductionID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	prod := models.Production{
		ID:            id,
		Number:        len(history) + 1,
		Title:         pl.Title,
		TargetMinutes: pl.TargetMinutes,
		CreatedAt:     now,
		PublishedAt:   opts.PublishedAt,
	}

	if err := s.store.CommitProduction(ctx, prod, ids, now); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("production committed", "id", prod.ID, "number", prod.Number, "items", len(ids))
	return &prod, nil
}

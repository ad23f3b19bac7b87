// Package catalog provides a file-backed catalog store.
//
// The whole catalog lives in one YAML document. Every read and every
// read-modify-write holds a lock on a sibling ".lock" file, so several
// processes can share a catalog on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
)

const lockRetryDelay = 50 * time.Millisecond

// document is the on-disk layout.
type document struct {
	Items       []models.CatalogItem `yaml:"items"`
	Productions []models.Production  `yaml:"productions"`
}

// FileStore keeps the catalog and production history in a YAML file.
type FileStore struct {
	path    string
	lock    *flock.Flock
	metrics *metrics.Collector
}

// NewFileStore opens a store at path. The file is created on first write.
func NewFileStore(path string, mc *metrics.Collector) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("catalog file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock"), metrics: mc}, nil
}

// Path returns the catalog file location.
func (s *FileStore) Path() string { return s.path }

// Close releases the lock file handle.
func (s *FileStore) Close(context.Context) error {
	return s.lock.Close()
}

// ListItems returns every item ordered by ID.
func (s *FileStore) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	defer s.metrics.Since(metrics.OpStoreRead, time.Now())

	var items []models.CatalogItem
	err := s.read(ctx, func(doc *document) {
		items = append([]models.CatalogItem{}, doc.Items...)
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// UpsertItems creates or replaces items by ID. Usage fields of existing items
// and their original CreatedAt are preserved.
func (s *FileStore) UpsertItems(ctx context.Context, items []models.CatalogItem) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())

	err := s.update(ctx, func(doc *document) error {
		index := make(map[string]int, len(doc.Items))
		for i, it := range doc.Items {
			index[it.ID] = i
		}
		for _, it := range items {
			i, ok := index[it.ID]
			if !ok {
				if it.CreatedAt.IsZero() {
					it.CreatedAt = time.Now().UTC()
				}
				it.TimesUsed = 0
				it.LastUsedProductionID = nil
				it.LastUsedAt = nil
				index[it.ID] = len(doc.Items)
				doc.Items = append(doc.Items, it)
				continue
			}
			old := doc.Items[i]
			it.TimesUsed = old.TimesUsed
			it.LastUsedProductionID = old.LastUsedProductionID
			it.LastUsedAt = old.LastUsedAt
			it.CreatedAt = old.CreatedAt
			doc.Items[i] = it
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}

// ListProductions returns all productions, oldest first.
func (s *FileStore) ListProductions(ctx context.Context) ([]models.Production, error) {
	defer s.metrics.Since(metrics.OpStoreRead, time.Now())

	var out []models.Production
	err := s.read(ctx, func(doc *document) {
		out = append([]models.Production{}, doc.Productions...)
	})
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CommitProduction stores p and stamps usage on every listed item in one
// locked write. A known production ID yields models.ErrProductionExists and
// unknown item IDs yield models.ErrUnknownItem; in both cases nothing is written.
func (s *FileStore) CommitProduction(ctx context.Context, p models.Production, itemIDs []string, at time.Time) error {
	defer s.metrics.Since(metrics.OpStoreWrite, time.Now())

	err := s.update(ctx, func(doc *document) error {
		for _, existing := range doc.Productions {
			if existing.ID == p.ID {
				return fmt.Errorf("%w: %s", models.ErrProductionExists, p.ID)
			}
		}

		index := make(map[string]int, len(doc.Items))
		for i, it := range doc.Items {
			index[it.ID] = i
		}
		var missing []string
		for _, id := range itemIDs {
			if _, ok := index[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %v", models.ErrUnknownItem, missing)
		}

		doc.Productions = append(doc.Productions, p)
		stamp := at
		for _, id := range itemIDs {
			it := &doc.Items[index[id]]
			it.TimesUsed++
			it.LastUsedProductionID = models.StringPtr(p.ID)
			it.LastUsedAt = &stamp
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit production: %w", err)
	}
	return nil
}

func (s *FileStore) read(ctx context.Context, fn func(*document)) error {
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire lock: %s is busy", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

func (s *FileStore) update(ctx context.Context, fn func(*document) error) error {
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire lock: %s is busy", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	return &doc, nil
}

// save writes to a temp file and renames it over the catalog.
func (s *FileStore) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

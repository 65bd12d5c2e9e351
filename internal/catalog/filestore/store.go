// Package filestore keeps the catalog in JSON files inside a data directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/pkg/shipper"
)

const (
	itemsFile     = "items.json"
	packagingFile = "packagings.json"
	settingsFile  = "settings.json"
)

// Store is a catalog.Repository backed by JSON files.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Items returns every item in file order.
func (s *Store) Items(_ context.Context) ([]shipper.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readList[shipper.Item](s.path(itemsFile))
}

// Item returns the item with id.
func (s *Store) Item(ctx context.Context, id string) (shipper.Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return shipper.Item{}, err
	}
	if it, ok := lo.Find(items, func(it shipper.Item) bool { return it.ID == id }); ok {
		return it, nil
	}
	return shipper.Item{}, fmt.Errorf("item %s: %w", id, shipper.ErrNotFound)
}

// PutItem inserts or replaces an item by id.
func (s *Store) PutItem(_ context.Context, item shipper.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readList[shipper.Item](s.path(itemsFile))
	if err != nil {
		return err
	}
	items = upsert(items, item, func(e shipper.Item) bool { return e.ID == item.ID })
	return s.write(itemsFile, items)
}

// DeleteItem removes the item with id.
func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readList[shipper.Item](s.path(itemsFile))
	if err != nil {
		return err
	}
	kept, removed := remove(items, func(e shipper.Item) bool { return e.ID == id })
	if !removed {
		return fmt.Errorf("item %s: %w", id, shipper.ErrNotFound)
	}
	return s.write(itemsFile, kept)
}

// Packagings returns every packaging option in file order.
func (s *Store) Packagings(_ context.Context) ([]shipper.Packaging, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readList[shipper.Packaging](s.path(packagingFile))
}

// Packaging returns the packaging with id.
func (s *Store) Packaging(ctx context.Context, id string) (shipper.Packaging, error) {
	all, err := s.Packagings(ctx)
	if err != nil {
		return shipper.Packaging{}, err
	}
	if p, ok := lo.Find(all, func(p shipper.Packaging) bool { return p.ID == id }); ok {
		return p, nil
	}
	return shipper.Packaging{}, fmt.Errorf("packaging %s: %w", id, shipper.ErrNotFound)
}

// PutPackaging inserts or replaces packaging by id.
func (s *Store) PutPackaging(_ context.Context, p shipper.Packaging) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readList[shipper.Packaging](s.path(packagingFile))
	if err != nil {
		return err
	}
	all = upsert(all, p, func(e shipper.Packaging) bool { return e.ID == p.ID })
	return s.write(packagingFile, all)
}

// DeletePackaging removes the packaging with id.
func (s *Store) DeletePackaging(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readList[shipper.Packaging](s.path(packagingFile))
	if err != nil {
		return err
	}
	kept, removed := remove(all, func(e shipper.Packaging) bool { return e.ID == id })
	if !removed {
		return fmt.Errorf("packaging %s: %w", id, shipper.ErrNotFound)
	}
	return s.write(packagingFile, kept)
}

// Settings returns the saved origin settings.
func (s *Store) Settings(_ context.Context) (shipper.OriginSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settings shipper.OriginSettings
	found, err := readJSON(s.path(settingsFile), &settings)
	if err != nil {
		return shipper.OriginSettings{}, err
	}
	if !found {
		return shipper.OriginSettings{}, fmt.Errorf("settings: %w", shipper.ErrNotFound)
	}
	return settings, nil
}

// PutSettings replaces the origin settings.
func (s *Store) PutSettings(_ context.Context, settings shipper.OriginSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(settingsFile, settings)
}

// Close is a no-op; every write is already durable.
func (s *Store) Close() error { return nil }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// write replaces name atomically with v encoded as indented JSON.
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func readList[T any](path string) ([]T, error) {
	var list []T
	if _, err := readJSON(path, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func upsert[T any](list []T, v T, match func(T) bool) []T {
	for i := range list {
		if match(list[i]) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}

func remove[T any](list []T, match func(T) bool) ([]T, bool) {
	kept := lo.Reject(list, func(v T, _ int) bool { return match(v) })
	return kept, len(kept) != len(list)
}

// Ensure Store implements catalog.Repository
var _ catalog.Repository = (*Store)(nil)

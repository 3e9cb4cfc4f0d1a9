// Package snapshot copies the people collection to and from object storage
// so an in-memory store survives restarts.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"personapi/internal/model"
	"personapi/internal/repository"
	"personapi/internal/storage"
)

const contentType = "application/json"

// Snapshotter saves and restores the whole collection as a single JSON array.
type Snapshotter struct {
	store storage.Storage
	key   string
}

// New returns a Snapshotter that uses key inside store.
func New(store storage.Storage, key string) *Snapshotter {
	return &Snapshotter{store: store, key: key}
}

// Save writes the current listing of repo. The array keeps listing order.
func (s *Snapshotter) Save(ctx context.Context, repo repository.PersonRepository) (storage.ObjectInfo, error) {
	people, err := repo.List(ctx)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("list people: %w", err)
	}
	b, err := json.Marshal(people)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("encode snapshot: %w", err)
	}
	info, err := s.store.Put(ctx, s.key, bytes.NewReader(b), storage.PutObjectOptions{
		Size:        int64(len(b)),
		ContentType: contentType,
		Metadata:    map[string]string{"people-count": fmt.Sprint(len(people))},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload snapshot: %w", err)
	}
	return info, nil
}

// Restore replays a stored snapshot into repo in its original order and
// returns how many people were loaded. A missing snapshot loads nothing.
func (s *Snapshotter) Restore(ctx context.Context, repo repository.PersonRepository) (int, error) {
	rc, _, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("download snapshot: %w", err)
	}
	defer rc.Close()

	var people []model.Person
	if err := json.NewDecoder(rc).Decode(&people); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range people {
		if _, err := repo.Save(ctx, &people[i]); err != nil {
			return i, fmt.Errorf("restore %q: %w", people[i].FirstName, err)
		}
	}
	return len(people), nil
}

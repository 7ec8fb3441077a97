package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/core"
	"github.com/google/uuid"
)

// Snapshot is the raw spreadsheet content captured by one refresh,
// stored before any row mapping so the original cells survive.
type Snapshot struct {
	ID      string                `json:"id"`
	TakenAt time.Time             `json:"takenAt"`
	Ranges  map[string][][]string `json:"ranges"`
}

// snapshotPath lays snapshots out by capture date so List with a date
// prefix walks one day at a time.
func snapshotPath(takenAt time.Time, id string) string {
	return fmt.Sprintf("snapshots/%s/%s.json", takenAt.UTC().Format("2006/01/02"), id)
}

// Save writes a snapshot of the given raw ranges and returns it.
func Save(ctx context.Context, store Store, ranges map[string][][]string, takenAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: takenAt.UTC(),
		Ranges:  ranges,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := store.Write(ctx, snapshotPath(snap.TakenAt, snap.ID), data); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	return snap, nil
}

// Load reads a snapshot back by its stored path.
func Load(ctx context.Context, store Store, path string) (*Snapshot, error) {
	data, err := store.Read(ctx, path)
	if err != nil {
		return nil, core.WrapError(core.ErrSnapshotNotFound, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// ListPaths returns stored snapshot paths, newest last. The date-based
// layout makes lexicographic order chronological.
func ListPaths(ctx context.Context, store Store) ([]string, error) {
	paths, err := store.List(ctx, "snapshots")
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Latest loads the most recent snapshot, or ErrSnapshotNotFound when
// the archive is empty.
func Latest(ctx context.Context, store Store) (*Snapshot, error) {
	paths, err := ListPaths(ctx, store)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, core.ErrSnapshotNotFound
	}
	return Load(ctx, store, paths[len(paths)-1])
}

// Prune deletes the oldest snapshots until at most keep remain,
// returning how many were removed. keep <= 0 disables pruning.
func Prune(ctx context.Context, store Store, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	paths, err := ListPaths(ctx, store)
	if err != nil {
		return 0, err
	}
	if len(paths) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, p := range paths[:len(paths)-keep] {
		if err := store.Delete(ctx, p); err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", p, err)
		}
		deleted++
	}
	return deleted, nil
}

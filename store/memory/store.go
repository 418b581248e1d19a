package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	getsafe "github.com/w-h-a/mosaic/util/get_safe"

	"github.com/w-h-a/mosaic/store"
)

type memoryStore struct {
	options store.Options
	points  map[string]store.Point
	mtx     sync.RWMutex
}

func (s *memoryStore) Upsert(ctx context.Context, points []store.Point) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, point := range points {
		if s.options.VectorSize > 0 && len(point.Vector) != s.options.VectorSize {
			return fmt.Errorf("vector %s has dimension %d, store expects %d", point.Id, len(point.Vector), s.options.VectorSize)
		}

		cpy := make([]float32, len(point.Vector))
		copy(cpy, point.Vector)

		metadata := make(map[string]any, len(point.Metadata))
		maps.Copy(metadata, point.Metadata)

		s.points[point.Id] = store.Point{
			Id:       point.Id,
			Vector:   cpy,
			Metadata: metadata,
		}
	}

	return nil
}

func (s *memoryStore) Query(ctx context.Context, vector []float32, limit int, filter map[string]any, withVectors bool) ([]store.Result, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]store.Result, 0, len(s.points))

	for _, point := range s.points {
		if !store.Matches(point.Metadata, filter) {
			continue
		}

		result := store.Result{
			Id:       point.Id,
			Score:    float32(store.CosineSimilarity(vector, point.Vector)),
			Metadata: point.Metadata,
		}

		result.UpdatedAt, _ = time.Parse(time.RFC3339Nano, getsafe.String(point.Metadata, "updated_at"))

		if withVectors {
			result.Vector = point.Vector
		}

		candidates = append(candidates, result)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (s *memoryStore) DeleteByFilter(ctx context.Context, filter map[string]any) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, point := range s.points {
		if store.Matches(point.Metadata, filter) {
			delete(s.points, id)
		}
	}

	return nil
}

func NewStore(opts ...store.Option) store.Store {
	options := store.NewOptions(opts...)

	s := &memoryStore{
		options: options,
		points:  map[string]store.Point{},
		mtx:     sync.RWMutex{},
	}

	return s
}

package ingestor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/mosaic/embedder"
	"github.com/w-h-a/mosaic/record"
	"github.com/w-h-a/mosaic/store"
	"golang.org/x/sync/errgroup"
)

const (
	StageSplit = "split"
	StageEmbed = "embed"
	StageStore = "store"
)

type IngestionError struct {
	Stage string
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

type Result struct {
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

// Ingestor turns raw text into embedded, metadata-tagged chunks and commits
// them to the store as one atomic batch per parent.
type Ingestor struct {
	store    store.Store
	embedder embedder.Embedder
	options  Options

	// one lock per parent so concurrent re-ingestion of the same parent
	// cannot interleave old and new chunks
	locks    map[string]*sync.Mutex
	locksMtx sync.Mutex
}

func (i *Ingestor) Ingest(ctx context.Context, parentId string, rawText string, ownerId string, categories []string, access string, sourceType string) (Result, error) {
	if len(strings.TrimSpace(parentId)) == 0 {
		return Result{}, &IngestionError{Stage: StageSplit, Err: fmt.Errorf("parent id is required")}
	}

	if len(strings.TrimSpace(rawText)) == 0 {
		return Result{}, &IngestionError{Stage: StageSplit, Err: fmt.Errorf("text is empty")}
	}

	if access != record.AccessPublic && access != record.AccessPersonal {
		return Result{}, &IngestionError{Stage: StageSplit, Err: fmt.Errorf("unknown access %q", access)}
	}

	lock := i.parentLock(parentId)
	lock.Lock()
	defer lock.Unlock()

	windows := Split(rawText, i.options.WindowSize, i.options.Overlap)
	if len(windows) == 0 {
		return Result{}, &IngestionError{Stage: StageSplit, Err: fmt.Errorf("no windows produced")}
	}

	now := time.Now().UTC()
	normalized := record.NormalizeCategories(categories)

	// fan out embeddings, fan in before any write so the commit is
	// all-or-nothing for this parent
	points := make([]store.Point, len(windows))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(i.options.Concurrency)

	for idx, window := range windows {
		group.Go(func() error {
			vector, err := i.embedWindow(groupCtx, window)
			if err != nil {
				return err
			}

			// point ids must be uuids for every backend; the parent id and
			// chunk index ride in the metadata
			chunk := record.Content{
				Id:          uuid.New().String(),
				ParentId:    parentId,
				OwnerId:     ownerId,
				Access:      access,
				Categories:  normalized,
				SourceType:  sourceType,
				Text:        window,
				ChunkIndex:  idx,
				TotalChunks: len(windows),
				FirstChunk:  idx == 0,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			points[idx] = store.Point{
				Id:       chunk.Id,
				Vector:   vector,
				Metadata: chunk.ToMetadata(),
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Result{}, &IngestionError{Stage: StageEmbed, Err: err}
	}

	// re-ingestion replaces every prior chunk of this parent, including
	// trailing chunks when the new split is shorter
	deleteFilter := map[string]any{store.FilterParentId: parentId}
	if err := i.store.DeleteByFilter(ctx, deleteFilter); err != nil {
		return Result{}, &IngestionError{Stage: StageStore, Err: err}
	}

	if err := i.store.Upsert(ctx, points); err != nil {
		return Result{}, &IngestionError{Stage: StageStore, Err: err}
	}

	return Result{ChunkCount: len(windows), Status: "ingested"}, nil
}

// Delete removes every chunk of a parent, vectors included.
func (i *Ingestor) Delete(ctx context.Context, parentId string, ownerId string) error {
	lock := i.parentLock(parentId)
	lock.Lock()
	defer lock.Unlock()

	filter := map[string]any{
		store.FilterParentId: parentId,
		store.FilterOwnerId:  ownerId,
	}

	if err := i.store.DeleteByFilter(ctx, filter); err != nil {
		return &IngestionError{Stage: StageStore, Err: err}
	}

	return nil
}

func (i *Ingestor) embedWindow(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= i.options.MaxRetries; attempt++ {
		vector, err := i.embedder.Embed(ctx, text)
		if err != nil {
			lastErr = err
			continue
		}

		if i.options.VectorSize > 0 && len(vector) != i.options.VectorSize {
			return nil, fmt.Errorf("embedder returned dimension %d, expected %d", len(vector), i.options.VectorSize)
		}

		return vector, nil
	}

	return nil, lastErr
}

func (i *Ingestor) parentLock(parentId string) *sync.Mutex {
	i.locksMtx.Lock()
	defer i.locksMtx.Unlock()

	lock, exists := i.locks[parentId]
	if !exists {
		lock = &sync.Mutex{}
		i.locks[parentId] = lock
	}

	return lock
}

func New(store store.Store, embedder embedder.Embedder, opts ...Option) *Ingestor {
	if store == nil {
		panic("store is required")
	}

	if embedder == nil {
		panic("embedder is required")
	}

	options := NewOptions(opts...)

	return &Ingestor{
		store:    store,
		embedder: embedder,
		options:  options,
		locks:    map[string]*sync.Mutex{},
	}
}

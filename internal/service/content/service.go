package content

import (
	"bytes"
	"context"
	"fmt"

	"github.com/w-h-a/mosaic/clarifier"
	"github.com/w-h-a/mosaic/identity"
	"github.com/w-h-a/mosaic/ingestor"
	"github.com/w-h-a/mosaic/projector"
	"github.com/w-h-a/mosaic/record"
	"github.com/w-h-a/mosaic/retriever"
	"github.com/w-h-a/mosaic/store"
)

// Service ties ingestion, clarification, retrieval, and visualization
// together behind the identity boundary.
type Service struct {
	ingestor   *ingestor.Ingestor
	clarifier  *clarifier.Clarifier
	engine     *retriever.Engine
	reducer    *projector.Reducer
	store      store.Store
	identity   identity.Provider
	vectorSize int
}

func (s *Service) Ingest(ctx context.Context, parentId string, text string, categories []string, access string, sourceType string) (ingestor.Result, error) {
	ownerId, err := s.identity.UserID(ctx)
	if err != nil {
		return ingestor.Result{}, err
	}

	return s.ingestor.Ingest(ctx, parentId, text, ownerId, categories, access, sourceType)
}

func (s *Service) Delete(ctx context.Context, parentId string) error {
	ownerId, err := s.identity.UserID(ctx)
	if err != nil {
		return err
	}

	return s.ingestor.Delete(ctx, parentId, ownerId)
}

// Search clarifies the query against recent history, retrieves with the
// clarified form, and falls back to the original query if the clarified one
// finds nothing. The returned string is the query that produced the results.
func (s *Service) Search(ctx context.Context, query string, history []clarifier.Turn, accessScope string, categories []string, topK int) ([]record.Content, string, error) {
	ownerId, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, "", err
	}

	clarified := s.clarifier.Clarify(ctx, query, history)

	records, err := s.engine.Retrieve(ctx, clarified, ownerId, accessScope, categories, topK)
	if err != nil {
		return nil, "", err
	}

	if len(records) == 0 && clarified != query {
		records, err = s.engine.Retrieve(ctx, query, ownerId, accessScope, categories, topK)
		if err != nil {
			return nil, "", err
		}
		return records, query, nil
	}

	return records, clarified, nil
}

// ContextFor assembles retrieved chunks into a context block suitable for a
// downstream generation prompt.
func (s *Service) ContextFor(ctx context.Context, query string, history []clarifier.Turn, accessScope string, categories []string, topK int) (string, error) {
	records, used, err := s.Search(ctx, query, history, accessScope, categories, topK)
	if err != nil {
		return "", err
	}

	var sb bytes.Buffer

	if len(records) > 0 {
		sb.WriteString("Relevant context:\n")
		for i, rec := range records {
			sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, rec.SourceType, rec.Text))
		}
	}

	sb.WriteString("\nQuestion:\n")
	sb.WriteString(used)
	sb.WriteString("\n")

	return sb.String(), nil
}

// Visualize reads the caller's visible vectors and projects them to 3-D
// display points. Points are recomputed each call and never stored.
func (s *Service) Visualize(ctx context.Context, sourceType string, limit int) ([]projector.Point, error) {
	ownerId, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = 500
	}

	filter := map[string]any{
		store.FilterVisibleTo: ownerId,
	}
	if len(sourceType) > 0 {
		filter[store.FilterSourceType] = sourceType
	}

	zeroVector := make([]float32, s.vectorSize)

	results, err := s.store.Query(ctx, zeroVector, limit, filter, true)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(results))
	for _, result := range results {
		vectors = append(vectors, result.Vector)
	}

	coords := s.reducer.Reduce(vectors, 3)

	points := make([]projector.Point, 0, len(coords))
	for i, c := range coords {
		rec := record.FromMetadata(results[i].Id, results[i].Metadata)
		points = append(points, projector.Point{
			X:          c[0],
			Y:          c[1],
			Z:          c[2],
			SourceType: rec.SourceType,
			SourceId:   rec.ParentId,
		})
	}

	return points, nil
}

func New(
	ingestor *ingestor.Ingestor,
	clarifier *clarifier.Clarifier,
	engine *retriever.Engine,
	reducer *projector.Reducer,
	store store.Store,
	identity identity.Provider,
	vectorSize int,
) *Service {
	return &Service{
		ingestor:   ingestor,
		clarifier:  clarifier,
		engine:     engine,
		reducer:    reducer,
		store:      store,
		identity:   identity,
		vectorSize: vectorSize,
	}
}

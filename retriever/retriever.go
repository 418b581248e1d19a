package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/w-h-a/mosaic/embedder"
	"github.com/w-h-a/mosaic/record"
	"github.com/w-h-a/mosaic/store"
)

const (
	ReasonProviderUnreachable = "provider_unreachable"
	ReasonInvalidFilter       = "invalid_filter"
	ReasonDimensionMismatch   = "dimension_mismatch"
)

const (
	// ScopeVisible covers the caller's own records plus public ones.
	ScopeVisible = "visible"
	// ScopePersonal restricts to the caller's personal records.
	ScopePersonal = "personal"
	// ScopePublic restricts to public records regardless of owner.
	ScopePublic = "public"
)

type RetrievalError struct {
	Reason string
	Detail string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed (%s): %s", e.Reason, e.Detail)
}

// Engine issues filtered similarity queries against the store. It never
// writes.
type Engine struct {
	store    store.Store
	embedder embedder.Embedder
	options  Options
}

func (e *Engine) Retrieve(ctx context.Context, query string, ownerId string, accessScope string, categories []string, topK int) ([]record.Content, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return nil, &RetrievalError{Reason: ReasonInvalidFilter, Detail: "query is empty"}
	}

	filter, err := buildFilter(ownerId, accessScope, categories)
	if err != nil {
		return nil, err
	}

	if topK < 1 {
		topK = e.options.DefaultLimit
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Reason: ReasonProviderUnreachable, Detail: err.Error()}
	}

	if e.options.VectorSize > 0 && len(vector) != e.options.VectorSize {
		// a mismatched embedder is misconfiguration, not a bad request
		return nil, &RetrievalError{
			Reason: ReasonDimensionMismatch,
			Detail: fmt.Sprintf("embedder produced dimension %d, store expects %d", len(vector), e.options.VectorSize),
		}
	}

	results, err := e.store.Query(ctx, vector, topK, filter, false)
	if err != nil {
		return nil, &RetrievalError{Reason: ReasonProviderUnreachable, Detail: err.Error()}
	}

	// a hit with no positive similarity is noise, not a result
	relevant := results[:0]
	for _, result := range results {
		if result.Score > e.options.MinScore {
			relevant = append(relevant, result)
		}
	}
	results = relevant

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})

	records := make([]record.Content, 0, len(results))
	for _, result := range results {
		records = append(records, record.FromMetadata(result.Id, result.Metadata))
	}

	return records, nil
}

func buildFilter(ownerId string, accessScope string, categories []string) (map[string]any, error) {
	if len(strings.TrimSpace(ownerId)) == 0 {
		return nil, &RetrievalError{Reason: ReasonInvalidFilter, Detail: "owner id is required"}
	}

	filter := map[string]any{}

	switch accessScope {
	case "", ScopeVisible:
		filter[store.FilterVisibleTo] = ownerId
	case ScopePersonal:
		filter[store.FilterOwnerId] = ownerId
		filter[store.FilterAccess] = record.AccessPersonal
	case ScopePublic:
		filter[store.FilterAccess] = record.AccessPublic
	default:
		return nil, &RetrievalError{Reason: ReasonInvalidFilter, Detail: fmt.Sprintf("unknown access scope %q", accessScope)}
	}

	if normalized := record.NormalizeCategories(categories); len(normalized) > 0 {
		filter[store.FilterCategories] = normalized
	}

	return filter, nil
}

func New(store store.Store, embedder embedder.Embedder, opts ...Option) *Engine {
	if store == nil {
		panic("store is required")
	}

	if embedder == nil {
		panic("embedder is required")
	}

	options := NewOptions(opts...)

	return &Engine{
		store:    store,
		embedder: embedder,
		options:  options,
	}
}

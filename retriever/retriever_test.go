package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/mosaic/record"
	"github.com/w-h-a/mosaic/store"
	memorystore "github.com/w-h-a/mosaic/store/memory"
)

// keywordEmbedder maps text onto a 4-dimensional keyword-count space so
// similarity in tests is easy to reason about.
type keywordEmbedder struct {
	err  error
	dims int
}

var keywords = []string{"alpha", "beta", "gamma", "delta"}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}

	dims := e.dims
	if dims == 0 {
		dims = len(keywords)
	}

	vector := make([]float32, dims)
	lowered := strings.ToLower(text)
	for i, keyword := range keywords {
		if i >= dims {
			break
		}
		vector[i] = float32(strings.Count(lowered, keyword))
	}

	return vector, nil
}

func seed(t *testing.T, s store.Store, id, ownerId, access, text string, categories []string, updatedAt time.Time) {
	t.Helper()

	embed := &keywordEmbedder{}
	vector, err := embed.Embed(context.Background(), text)
	require.NoError(t, err)

	chunk := record.Content{
		Id:          id,
		ParentId:    id,
		OwnerId:     ownerId,
		Access:      access,
		Categories:  categories,
		SourceType:  record.SourceNote,
		Text:        text,
		TotalChunks: 1,
		FirstChunk:  true,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}

	require.NoError(t, s.Upsert(context.Background(), []store.Point{{
		Id:       id,
		Vector:   vector,
		Metadata: chunk.ToMetadata(),
	}}))
}

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()

	s := memorystore.NewStore(store.WithVectorSize(len(keywords)))
	engine := New(s, &keywordEmbedder{}, WithVectorSize(len(keywords)))

	return engine, s
}

func TestRetrieveNeverLeaksOtherUsersPersonalContent(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "mine", "u1", record.AccessPersonal, "alpha alpha", nil, now)
	seed(t, s, "theirs", "u2", record.AccessPersonal, "alpha alpha", nil, now)
	seed(t, s, "shared", "u2", record.AccessPublic, "alpha", nil, now)

	records, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopeVisible, nil, 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Id)
	}

	assert.Contains(t, ids, "mine")
	assert.Contains(t, ids, "shared")
	assert.NotContains(t, ids, "theirs")
}

func TestRetrievePersonalScopeExcludesPublic(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "private-note", "u1", record.AccessPersonal, "beta", nil, now)
	seed(t, s, "public-note", "u1", record.AccessPublic, "beta", nil, now)

	records, err := engine.Retrieve(context.Background(), "beta", "u1", ScopePersonal, nil, 10)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "private-note", records[0].Id)
}

func TestRetrievePublicScopeIgnoresOwnership(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "u1-public", "u1", record.AccessPublic, "gamma", nil, now)
	seed(t, s, "u2-public", "u2", record.AccessPublic, "gamma", nil, now)
	seed(t, s, "u1-private", "u1", record.AccessPersonal, "gamma", nil, now)

	records, err := engine.Retrieve(context.Background(), "gamma", "u1", ScopePublic, nil, 10)
	require.NoError(t, err)

	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, record.AccessPublic, r.Access)
	}
}

func TestRetrieveFiltersByCategory(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "work-note", "u1", record.AccessPersonal, "delta", []string{"work"}, now)
	seed(t, s, "home-note", "u1", record.AccessPersonal, "delta", []string{"home"}, now)

	records, err := engine.Retrieve(context.Background(), "delta", "u1", ScopePersonal, []string{"Work"}, 10)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "work-note", records[0].Id)
}

func TestRetrieveOrdersByScoreThenRecency(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	// "close" matches the query direction exactly; "far" points elsewhere
	seed(t, s, "far", "u1", record.AccessPersonal, "alpha beta beta beta", nil, now)
	seed(t, s, "close", "u1", record.AccessPersonal, "alpha alpha", nil, now.Add(-time.Hour))
	seed(t, s, "stale-close", "u1", record.AccessPersonal, "alpha", nil, now.Add(-2*time.Hour))

	records, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopePersonal, nil, 10)
	require.NoError(t, err)

	require.Len(t, records, 3)
	// "close" and "stale-close" tie on similarity; the fresher one wins
	assert.Equal(t, "close", records[0].Id)
	assert.Equal(t, "stale-close", records[1].Id)
	assert.Equal(t, "far", records[2].Id)
}

func TestRetrieveRespectsTopK(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "n1", "u1", record.AccessPersonal, "alpha", nil, now)
	seed(t, s, "n2", "u1", record.AccessPersonal, "alpha", nil, now)
	seed(t, s, "n3", "u1", record.AccessPersonal, "alpha", nil, now)

	records, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopePersonal, nil, 2)
	require.NoError(t, err)

	assert.Len(t, records, 2)
}

func TestRetrieveDropsIrrelevantResults(t *testing.T) {
	engine, s := newTestEngine(t)

	now := time.Now().UTC()
	seed(t, s, "relevant", "u1", record.AccessPersonal, "alpha", nil, now)
	seed(t, s, "orthogonal", "u1", record.AccessPersonal, "beta", nil, now)

	records, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopePersonal, nil, 10)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "relevant", records[0].Id)
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Retrieve(context.Background(), "  ", "u1", ScopeVisible, nil, 10)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, ReasonInvalidFilter, retrievalErr.Reason)
}

func TestRetrieveRejectsUnknownScope(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Retrieve(context.Background(), "alpha", "u1", "everything", nil, 10)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, ReasonInvalidFilter, retrievalErr.Reason)
}

func TestRetrieveRejectsMissingOwner(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Retrieve(context.Background(), "alpha", "", ScopeVisible, nil, 10)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, ReasonInvalidFilter, retrievalErr.Reason)
}

func TestRetrieveReportsUnreachableProvider(t *testing.T) {
	s := memorystore.NewStore(store.WithVectorSize(len(keywords)))
	engine := New(s, &keywordEmbedder{err: errors.New("connection refused")}, WithVectorSize(len(keywords)))

	_, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopeVisible, nil, 10)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, ReasonProviderUnreachable, retrievalErr.Reason)
}

func TestRetrieveReportsDimensionMismatch(t *testing.T) {
	s := memorystore.NewStore(store.WithVectorSize(len(keywords)))
	engine := New(s, &keywordEmbedder{dims: 2}, WithVectorSize(len(keywords)))

	_, err := engine.Retrieve(context.Background(), "alpha", "u1", ScopeVisible, nil, 10)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, ReasonDimensionMismatch, retrievalErr.Reason)
}

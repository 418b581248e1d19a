package mosaic

import (
	"context"

	agentmodel "github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/chain"
	"github.com/w-h-a/mosaic/clarifier"
	"github.com/w-h-a/mosaic/embedder"
	"github.com/w-h-a/mosaic/executor"
	"github.com/w-h-a/mosaic/generator"
	"github.com/w-h-a/mosaic/identity"
	"github.com/w-h-a/mosaic/ingestor"
	agentservice "github.com/w-h-a/mosaic/internal/service/agent"
	contentservice "github.com/w-h-a/mosaic/internal/service/content"
	"github.com/w-h-a/mosaic/projector"
	"github.com/w-h-a/mosaic/record"
	"github.com/w-h-a/mosaic/retriever"
	"github.com/w-h-a/mosaic/store"
)

// Mosaic is the top-level facade: ingestion and retrieval of per-user
// content, agent authoring and composition, chain execution, and embedding
// visualization.
type Mosaic struct {
	content *contentservice.Service
	agents  *agentservice.Service
}

func (m *Mosaic) Ingest(ctx context.Context, parentId string, text string, categories []string, access string, sourceType string) (ingestor.Result, error) {
	return m.content.Ingest(ctx, parentId, text, categories, access, sourceType)
}

func (m *Mosaic) DeleteContent(ctx context.Context, parentId string) error {
	return m.content.Delete(ctx, parentId)
}

func (m *Mosaic) Search(ctx context.Context, query string, history []clarifier.Turn, accessScope string, categories []string, topK int) ([]record.Content, string, error) {
	return m.content.Search(ctx, query, history, accessScope, categories, topK)
}

func (m *Mosaic) ContextFor(ctx context.Context, query string, history []clarifier.Turn, accessScope string, categories []string, topK int) (string, error) {
	return m.content.ContextFor(ctx, query, history, accessScope, categories, topK)
}

func (m *Mosaic) Visualize(ctx context.Context, sourceType string, limit int) ([]projector.Point, error) {
	return m.content.Visualize(ctx, sourceType, limit)
}

func (m *Mosaic) SaveAgent(ctx context.Context, config agentmodel.Config) (agentmodel.Config, error) {
	return m.agents.Save(ctx, config)
}

func (m *Mosaic) GetAgent(ctx context.Context, agentId string) (agentmodel.Config, error) {
	return m.agents.Get(ctx, agentId)
}

func (m *Mosaic) ListAgents(ctx context.Context) ([]agentmodel.Config, error) {
	return m.agents.List(ctx)
}

func (m *Mosaic) Remix(ctx context.Context, sourceIds []string) (agentmodel.Config, error) {
	return m.agents.Remix(ctx, sourceIds)
}

func (m *Mosaic) LaunchChain(ctx context.Context, agentIds []string, input string) (*chain.Run, error) {
	return m.agents.LaunchChain(ctx, agentIds, input)
}

func (m *Mosaic) GetRun(ctx context.Context, runId string) (*chain.Run, error) {
	return m.agents.GetRun(ctx, runId)
}

func New(
	vectorStore store.Store,
	embedder embedder.Embedder,
	generator generator.Generator,
	executor executor.Executor,
	identityProvider identity.Provider,
	vectorSize int,
) *Mosaic {
	if identityProvider == nil {
		identityProvider = identity.NewProvider()
	}

	ingest := ingestor.New(
		vectorStore,
		embedder,
		ingestor.WithVectorSize(vectorSize),
	)

	clarify := clarifier.New(generator)

	engine := retriever.New(
		vectorStore,
		embedder,
		retriever.WithVectorSize(vectorSize),
	)

	reducer := projector.New()

	content := contentservice.New(
		ingest,
		clarify,
		engine,
		reducer,
		vectorStore,
		identityProvider,
		vectorSize,
	)

	launcher := chain.NewLauncher(executor)

	agents := agentservice.New(
		launcher,
		identityProvider,
	)

	return &Mosaic{
		content: content,
		agents:  agents,
	}
}

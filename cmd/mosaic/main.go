package main

import (
	"context"
	"log"

	"github.com/alecthomas/kong"
	mosaic "github.com/w-h-a/mosaic"
	"github.com/w-h-a/mosaic/embedder"
	googleembedder "github.com/w-h-a/mosaic/embedder/google"
	openaiembedder "github.com/w-h-a/mosaic/embedder/openai"
	"github.com/w-h-a/mosaic/executor"
	executorlocal "github.com/w-h-a/mosaic/executor/local"
	executorutcp "github.com/w-h-a/mosaic/executor/utcp"
	"github.com/w-h-a/mosaic/generator"
	anthropicgenerator "github.com/w-h-a/mosaic/generator/anthropic"
	openaigenerator "github.com/w-h-a/mosaic/generator/openai"
	"github.com/w-h-a/mosaic/identity"
	"github.com/w-h-a/mosaic/server/http"
	"github.com/w-h-a/mosaic/store"
	memorystore "github.com/w-h-a/mosaic/store/memory"
	postgresstore "github.com/w-h-a/mosaic/store/postgres"
	qdrantstore "github.com/w-h-a/mosaic/store/qdrant"
)

var (
	cfg struct {
		// Store config
		Store           string `help:"Vector store backend: memory, qdrant, or postgres" default:"memory"`
		StoreLocation   string `help:"Address of the vector store" default:"http://localhost:6333"`
		StoreCollection string `help:"Collection holding content vectors" default:"mosaic"`
		StoreApiKey     string `help:"API Key for the vector store" default:""`
		VectorSize      int    `help:"Embedding dimensionality for the whole store" default:"768"`

		// Embedder config
		Embedder      string `help:"Embedding provider: openai or google" default:"openai"`
		EmbedderKey   string `help:"API Key for the embedder" default:""`
		EmbedderModel string `help:"Model identifier for the embedder" default:"text-embedding-3-small"`

		// Generator config
		Generator      string `help:"Generation provider: openai or anthropic" default:"openai"`
		GeneratorKey   string `help:"API Key for the generator" default:""`
		GeneratorModel string `help:"Model identifier for the generator" default:"gpt-3.5-turbo"`

		// Executor config
		Executor      string   `help:"Chain step executor: local or utcp" default:"local"`
		ExecutorAddrs []string `help:"HTTP tool provider addresses for the utcp executor"`
		ExecutorTool  string   `help:"Tool name the utcp executor calls; defaults to each agent's name" default:""`

		// Server config
		Address string `help:"HTTP listen address" default:":8080"`
	}
)

func main() {
	// Parse inputs
	_ = kong.Parse(&cfg)

	// Create store
	var vectorStore store.Store

	switch cfg.Store {
	case "qdrant":
		vectorStore = qdrantstore.NewStore(
			store.WithLocation(cfg.StoreLocation),
			store.WithCollection(cfg.StoreCollection),
			store.WithApiKey(cfg.StoreApiKey),
			store.WithVectorSize(cfg.VectorSize),
		)
	case "postgres":
		vectorStore = postgresstore.NewStore(
			store.WithLocation(cfg.StoreLocation),
			store.WithVectorSize(cfg.VectorSize),
		)
	default:
		vectorStore = memorystore.NewStore(
			store.WithVectorSize(cfg.VectorSize),
		)
	}

	// Create embedder
	var embed embedder.Embedder

	switch cfg.Embedder {
	case "google":
		embed = googleembedder.NewEmbedder(
			embedder.WithApiKey(cfg.EmbedderKey),
			embedder.WithModel(cfg.EmbedderModel),
		)
	default:
		embed = openaiembedder.NewEmbedder(
			embedder.WithApiKey(cfg.EmbedderKey),
			embedder.WithModel(cfg.EmbedderModel),
		)
	}

	// Create generator
	var generate generator.Generator

	switch cfg.Generator {
	case "anthropic":
		generate = anthropicgenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.GeneratorModel),
		)
	default:
		generate = openaigenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.GeneratorModel),
		)
	}

	// Create executor for chain steps
	var execute executor.Executor

	switch cfg.Executor {
	case "utcp":
		client, err := executorutcp.NewClient(context.Background(), cfg.ExecutorAddrs...)
		if err != nil {
			log.Fatalf("failed to create utcp client: %v", err)
		}

		executorOpts := []executor.Option{
			executorutcp.WithUtcpClient(client),
		}
		if len(cfg.ExecutorTool) > 0 {
			executorOpts = append(executorOpts, executorutcp.WithToolName(cfg.ExecutorTool))
		}

		execute = executorutcp.NewExecutor(executorOpts...)
	default:
		execute = executorlocal.NewExecutor(generate)
	}

	// Create facade
	m := mosaic.New(
		vectorStore,
		embed,
		generate,
		execute,
		identity.NewProvider(),
		cfg.VectorSize,
	)

	// Serve
	server := http.NewServer(
		m,
		http.WithAddress(cfg.Address),
	)

	if err := server.Start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

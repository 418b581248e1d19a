package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/mosaic/generator"
)

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string, opts ...generator.GenerateOption) (string, error) {
	rsp, err := g.client.Messages.New(ctx, g.request(prompt, opts...))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return "", errors.New("no response from Anthropic")
	}

	return result, nil
}

func (g *anthropicGenerator) Stream(ctx context.Context, prompt string, opts ...generator.GenerateOption) (<-chan generator.Chunk, error) {
	stream := g.client.Messages.NewStreaming(ctx, g.request(prompt, opts...))

	out := make(chan generator.Chunk)

	go func() {
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()

			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && len(text.Text) > 0 {
					out <- generator.Chunk{Text: text.Text}
				}
			}
		}

		if err := stream.Err(); err != nil {
			out <- generator.Chunk{Err: err, Done: true}
			return
		}

		out <- generator.Chunk{Done: true}
	}()

	return out, nil
}

func (g *anthropicGenerator) request(prompt string, opts ...generator.GenerateOption) anthropic.MessageNewParams {
	options := generator.NewGenerateOptions(opts...)

	fullPrompt := prompt
	if len(g.options.PromptPrefix) > 0 {
		fullPrompt = g.options.PromptPrefix + "\n" + prompt
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(g.options.Model),
		MaxTokens:   int64(options.MaxTokens),
		Temperature: anthropic.Float(float64(options.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt)),
		},
	}
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &anthropicGenerator{
		options: options,
	}

	client := anthropic.NewClient(
		anthropicopt.WithAPIKey(options.ApiKey),
	)

	g.client = &client

	return g
}

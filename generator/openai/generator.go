package openai

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/mosaic/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, opts ...generator.GenerateOption) (string, error) {
	rsp, err := g.client.CreateChatCompletion(ctx, g.request(prompt, opts...))
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return rsp.Choices[0].Message.Content, nil
}

func (g *openAIGenerator) Stream(ctx context.Context, prompt string, opts ...generator.GenerateOption) (<-chan generator.Chunk, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(prompt, opts...))
	if err != nil {
		return nil, err
	}

	out := make(chan generator.Chunk)

	go func() {
		defer close(out)
		defer stream.Close()

		for {
			rsp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- generator.Chunk{Done: true}
				return
			}
			if err != nil {
				out <- generator.Chunk{Err: err, Done: true}
				return
			}

			if len(rsp.Choices) == 0 {
				continue
			}

			if text := rsp.Choices[0].Delta.Content; len(text) > 0 {
				out <- generator.Chunk{Text: text}
			}
		}
	}()

	return out, nil
}

func (g *openAIGenerator) request(prompt string, opts ...generator.GenerateOption) openai.ChatCompletionRequest {
	options := generator.NewGenerateOptions(opts...)

	fullPrompt := prompt
	if len(g.options.PromptPrefix) > 0 {
		fullPrompt = g.options.PromptPrefix + "\n" + prompt
	}

	return openai.ChatCompletionRequest{
		Model:       g.options.Model,
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fullPrompt,
			},
		},
	}
}

func NewGenerator(opts ...generator.Option) generator.Generator {
	options := generator.NewOptions(opts...)

	g := &openAIGenerator{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	g.client = client

	return g
}

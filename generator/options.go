package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey       string
	Model        string
	PromptPrefix string
	Context      context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithPromptPrefix(prefix string) Option {
	return func(o *Options) {
		o.PromptPrefix = prefix
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type GenerateOption func(*GenerateOptions)

type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

func WithMaxTokens(maxTokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = maxTokens
	}
}

func WithTemperature(temperature float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}

func NewGenerateOptions(opts ...GenerateOption) GenerateOptions {
	options := GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

package clarifier

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	MaxTokens     int
	Temperature   float32
	HistoryWindow int
	Timeout       time.Duration
	Context       context.Context
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithHistoryWindow(window int) Option {
	return func(o *Options) {
		o.HistoryWindow = window
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxTokens: 128,
		// low randomness keeps rewrites reproducible
		Temperature:   0.1,
		HistoryWindow: 6,
		Timeout:       10 * time.Second,
		Context:       context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

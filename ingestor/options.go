package ingestor

import "context"

type Option func(*Options)

type Options struct {
	WindowSize  int
	Overlap     int
	MaxRetries  int
	Concurrency int
	VectorSize  int
	Context     context.Context
}

func WithWindowSize(size int) Option {
	return func(o *Options) {
		o.WindowSize = size
	}
}

func WithOverlap(overlap int) Option {
	return func(o *Options) {
		o.Overlap = overlap
	}
}

func WithMaxRetries(retries int) Option {
	return func(o *Options) {
		o.MaxRetries = retries
	}
}

func WithConcurrency(concurrency int) Option {
	return func(o *Options) {
		o.Concurrency = concurrency
	}
}

func WithVectorSize(size int) Option {
	return func(o *Options) {
		o.VectorSize = size
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		WindowSize:  800,
		Overlap:     200,
		MaxRetries:  2,
		Concurrency: 4,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

package retriever

import "context"

type Option func(*Options)

type Options struct {
	VectorSize   int
	DefaultLimit int
	MinScore     float32
	Context      context.Context
}

func WithVectorSize(size int) Option {
	return func(o *Options) {
		o.VectorSize = size
	}
}

func WithMinScore(score float32) Option {
	return func(o *Options) {
		o.MinScore = score
	}
}

func WithDefaultLimit(limit int) Option {
	return func(o *Options) {
		o.DefaultLimit = limit
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		DefaultLimit: 5,
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

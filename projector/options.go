package projector

import "context"

type Option func(*Options)

type Options struct {
	BatchSize  int
	Scale      float64
	Iterations int
	Context    context.Context
}

func WithBatchSize(size int) Option {
	return func(o *Options) {
		o.BatchSize = size
	}
}

func WithScale(scale float64) Option {
	return func(o *Options) {
		o.Scale = scale
	}
}

func WithIterations(iterations int) Option {
	return func(o *Options) {
		o.Iterations = iterations
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		BatchSize:  64,
		Scale:      10,
		Iterations: 50,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

package chain

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	StepTimeout time.Duration
	Context     context.Context
}

func WithStepTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = timeout
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		StepTimeout: 2 * time.Minute,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

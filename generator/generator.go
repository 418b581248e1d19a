package generator

import "context"

type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
	Stream(ctx context.Context, prompt string, opts ...GenerateOption) (<-chan Chunk, error)
}

// Chunk is one increment of a streamed generation. The final chunk carries
// Done=true and no text.
type Chunk struct {
	Text string
	Done bool
	Err  error
}

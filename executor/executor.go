package executor

import (
	"context"

	"github.com/w-h-a/mosaic/agent"
)

// Executor runs one agent against one input. Implementations decide where the
// agent actually executes; the chain launcher only sees output or error.
type Executor interface {
	Run(ctx context.Context, config agent.Config, input string) (string, error)
}

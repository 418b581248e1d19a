package local

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/executor"
	"github.com/w-h-a/mosaic/generator"
)

// localExecutor runs an agent in-process by prompting the generator with the
// agent's own configuration.
type localExecutor struct {
	options   executor.Options
	generator generator.Generator
}

func (e *localExecutor) Run(ctx context.Context, config agent.Config, input string) (string, error) {
	if len(strings.TrimSpace(input)) == 0 {
		return "", fmt.Errorf("input is required")
	}

	var sb bytes.Buffer

	sb.WriteString(fmt.Sprintf("You are the agent %q.", config.Name))
	if len(config.Description) > 0 {
		sb.WriteString(" " + config.Description)
	}
	sb.WriteString("\n")

	if len(config.Capabilities) > 0 {
		sb.WriteString("\nYour capabilities:\n")
		for _, capability := range config.Capabilities {
			sb.WriteString(fmt.Sprintf("- %s (proficiency %.2f)\n", capability.Name, capability.ProficiencyLevel))
		}
	}

	if len(config.Tools) > 0 {
		sb.WriteString("\nAvailable tools: " + strings.Join(config.Tools, ", ") + "\n")
	}

	sb.WriteString("\nInput:\n")
	sb.WriteString(input)
	sb.WriteString("\n\nRespond with your best output for the next agent in the chain.\n")

	return e.generator.Generate(ctx, sb.String())
}

func NewExecutor(g generator.Generator, opts ...executor.Option) executor.Executor {
	if g == nil {
		panic("generator is required")
	}

	options := executor.NewOptions(opts...)

	return &localExecutor{
		options:   options,
		generator: g,
	}
}

package clarifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/mosaic/generator"
)

// Turn is one prior exchange in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Clarifier rewrites ambiguous queries using recent history. It is strictly
// best-effort: any provider failure, timeout, or useless rewrite falls back
// to the original query.
type Clarifier struct {
	generator generator.Generator
	options   Options
}

func (c *Clarifier) Clarify(ctx context.Context, query string, history []Turn) string {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) == 0 {
		return query
	}

	prompt := c.buildPrompt(trimmed, history)

	clarifyCtx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	rewritten, err := c.generator.Generate(
		clarifyCtx,
		prompt,
		generator.WithMaxTokens(c.options.MaxTokens),
		generator.WithTemperature(c.options.Temperature),
	)
	if err != nil {
		slog.DebugContext(ctx, "clarification fell back to original query", "error", err)
		return query
	}

	rewritten = strings.TrimSpace(rewritten)
	if len(rewritten) == 0 || strings.EqualFold(rewritten, trimmed) {
		return query
	}

	return rewritten
}

func (c *Clarifier) buildPrompt(query string, history []Turn) string {
	var sb bytes.Buffer

	sb.WriteString("Rewrite the user's final question so it is explicit and self-contained. Reply with the rewritten question only.\n")

	recent := history
	if len(recent) > c.options.HistoryWindow {
		recent = recent[len(recent)-c.options.HistoryWindow:]
	}

	if len(recent) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range recent {
			sb.WriteString(fmt.Sprintf("[%s]: %s\n", turn.Role, turn.Content))
		}
	}

	sb.WriteString("\nFinal question:\n")
	sb.WriteString(query)
	sb.WriteString("\n")

	return sb.String()
}

func New(generator generator.Generator, opts ...Option) *Clarifier {
	if generator == nil {
		panic("generator is required")
	}

	options := NewOptions(opts...)

	return &Clarifier{
		generator: generator,
		options:   options,
	}
}

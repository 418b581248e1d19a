package utcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/executor"
)

// utcpExecutor runs an agent by calling it as a remote UTCP tool. The tool
// name defaults to the agent's normalized name unless pinned by option.
type utcpExecutor struct {
	options  executor.Options
	client   utcp.UtcpClientInterface
	toolName string
}

func (e *utcpExecutor) Run(ctx context.Context, config agent.Config, input string) (string, error) {
	if e.client == nil {
		return "", errors.New("utcp client is not configured")
	}

	toolName := e.toolName
	if len(toolName) == 0 {
		toolName = config.Name
	}

	args := map[string]any{
		"agent_id": config.AgentId,
		"input":    input,
	}

	raw, err := e.client.CallTool(ctx, toolName, args)
	if err != nil {
		return "", err
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b), nil
		}
		return fmt.Sprintf("%v", v), nil
	}
}

func NewExecutor(opts ...executor.Option) executor.Executor {
	options := executor.NewOptions(opts...)

	e := &utcpExecutor{
		options: options,
	}

	if client, ok := UtcpClientFrom(options.Context); ok {
		e.client = client
	}

	if name, ok := ToolNameFrom(options.Context); ok {
		e.toolName = name
	}

	return e
}

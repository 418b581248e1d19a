package utcp

import (
	"context"

	"github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/w-h-a/mosaic/executor"
)

type utcpClientKey struct{}

func WithUtcpClient(client utcp.UtcpClientInterface) executor.Option {
	return func(o *executor.Options) {
		o.Context = context.WithValue(o.Context, utcpClientKey{}, client)
	}
}

func UtcpClientFrom(ctx context.Context) (utcp.UtcpClientInterface, bool) {
	client, ok := ctx.Value(utcpClientKey{}).(utcp.UtcpClientInterface)
	return client, ok
}

type nameKey struct{}

func WithToolName(name string) executor.Option {
	return func(o *executor.Options) {
		o.Context = context.WithValue(o.Context, nameKey{}, name)
	}
}

func ToolNameFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(nameKey{}).(string)
	return name, ok
}

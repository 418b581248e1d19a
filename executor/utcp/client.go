package utcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/universal-tool-calling-protocol/go-utcp"
)

// NewClient builds a UTCP client that discovers tools from the given HTTP
// provider addresses. The client library loads its providers from a config
// file, so the addresses are written to a temporary one first.
func NewClient(ctx context.Context, addrs ...string) (utcp.UtcpClientInterface, error) {
	config := &utcp.UtcpClientConfig{}

	if len(addrs) > 0 {
		path, err := writeProvidersFile(addrs)
		if err != nil {
			return nil, err
		}
		defer os.Remove(path)
		config.ProvidersFilePath = path
	}

	return utcp.NewUTCPClient(ctx, config, nil, nil)
}

func writeProvidersFile(addrs []string) (string, error) {
	providers := make([]map[string]any, 0, len(addrs))

	for i, addr := range addrs {
		providers = append(providers, map[string]any{
			"provider_type": "http",
			"name":          fmt.Sprintf("provider_%d", i),
			"url":           addr,
			"http_method":   "POST",
			"headers": map[string]string{
				"Content-Type": "application/json",
			},
		})
	}

	data, err := json.Marshal(map[string]any{"providers": providers})
	if err != nil {
		return "", err
	}

	file, err := os.CreateTemp("", "utcp_providers_*.json")
	if err != nil {
		return "", err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}

	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

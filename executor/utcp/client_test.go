package utcp

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProvidersFileShape(t *testing.T) {
	path, err := writeProvidersFile([]string{
		"http://agents.internal:9000/writer",
		"http://agents.internal:9000/editor",
	})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var config struct {
		Providers []struct {
			ProviderType string            `json:"provider_type"`
			Name         string            `json:"name"`
			Url          string            `json:"url"`
			HttpMethod   string            `json:"http_method"`
			Headers      map[string]string `json:"headers"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(data, &config))

	require.Len(t, config.Providers, 2)

	for i, provider := range config.Providers {
		assert.Equal(t, "http", provider.ProviderType)
		assert.NotEmpty(t, provider.Name)
		assert.Equal(t, "POST", provider.HttpMethod)
		assert.Equal(t, "application/json", provider.Headers["Content-Type"])
		if i == 0 {
			assert.Equal(t, "http://agents.internal:9000/writer", provider.Url)
		}
	}
}

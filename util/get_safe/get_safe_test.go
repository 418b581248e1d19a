package getsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsTolerateMissingAndMistypedKeys(t *testing.T) {
	payload := map[string]any{
		"name":    "mosaic",
		"tags":    []any{"a", "b", 3},
		"count":   float64(7),
		"flag":    true,
		"details": map[string]any{"k": "v"},
	}

	assert.Equal(t, "mosaic", String(payload, "name"))
	assert.Equal(t, "", String(payload, "count"))
	assert.Equal(t, "", String(payload, "missing"))

	assert.Equal(t, []string{"a", "b"}, Strings(payload, "tags"))
	assert.Nil(t, Strings(payload, "missing"))

	assert.Equal(t, 7, Int(payload, "count"))
	assert.Equal(t, 0, Int(payload, "name"))

	assert.True(t, Bool(payload, "flag"))
	assert.False(t, Bool(payload, "missing"))

	assert.Equal(t, map[string]any{"k": "v"}, Metadata(payload, "details"))
	assert.Nil(t, Metadata(payload, "name"))
}

func TestIntAcceptsNativeIntegerTypes(t *testing.T) {
	payload := map[string]any{
		"plain": 4,
		"wide":  int64(9),
	}

	assert.Equal(t, 4, Int(payload, "plain"))
	assert.Equal(t, 9, Int(payload, "wide"))
}

package qdrant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiStatusAcceptsBareString(t *testing.T) {
	var rsp envelope[json.RawMessage]

	require.NoError(t, json.Unmarshal([]byte(`{"status":"OK","result":{}}`), &rsp))

	assert.Equal(t, "ok", rsp.Status.State)
	assert.Empty(t, rsp.Status.Error)
}

func TestApiStatusAcceptsErrorObject(t *testing.T) {
	var rsp envelope[json.RawMessage]

	require.NoError(t, json.Unmarshal([]byte(`{"status":{"error":"collection not found"},"result":null}`), &rsp))

	assert.Equal(t, "error", rsp.Status.State)
	assert.Equal(t, "collection not found", rsp.Status.Error)
}

func TestScoredPointCarriesPayloadAndOptionalVector(t *testing.T) {
	var rsp envelope[[]scoredPoint]

	body := `{"status":"ok","result":[{"id":"p1","score":0.42,"payload":{"owner_id":"u1"},"vector":[0.1,0.2]}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &rsp))

	require.Len(t, rsp.Result, 1)
	assert.Equal(t, "p1", rsp.Result[0].Id)
	assert.InDelta(t, 0.42, rsp.Result[0].Score, 1e-9)
	assert.Equal(t, "u1", rsp.Result[0].Payload["owner_id"])
	assert.Equal(t, []float32{0.1, 0.2}, rsp.Result[0].Vector)
}

package qdrant

import (
	"encoding/json"
	"strings"
)

// envelope is the wrapper every points API response arrives in.
type envelope[T any] struct {
	Status apiStatus `json:"status"`
	Result T         `json:"result"`
}

// apiStatus is either the bare string "ok" or an object carrying an
// error message, depending on the endpoint and the outcome.
type apiStatus struct {
	State string `json:"status"`
	Error string `json:"error,omitempty"`
}

func (s *apiStatus) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, `"`) {
		var state string
		if err := json.Unmarshal(data, &state); err != nil {
			return err
		}
		s.State = strings.ToLower(state)
		return nil
	}

	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &failure); err != nil {
		return err
	}
	if len(failure.Error) > 0 {
		s.State = "error"
		s.Error = failure.Error
	}

	return nil
}

// scoredPoint is one search hit. The payload is always requested; the
// vector is populated only when the query asked for vectors back.
type scoredPoint struct {
	Id      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdoptionRequestEmbeddingKeepsSiblingFields(t *testing.T) {
	completed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	wrapper := struct {
		AdoptionRequest
		Pet *Pet `json:"pet,omitempty"`
	}{
		AdoptionRequest: AdoptionRequest{ID: "req-1", Status: RequestCompleted, CompletedAt: &completed},
		Pet:             &Pet{ID: "pet-1", Name: "Luna"},
	}

	data, err := json.Marshal(wrapper)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Contains(t, out, "pet")
	assert.Contains(t, out, "completed_at")
	assert.Contains(t, out, "id")
}

func TestAdoptionRequestCompletedAtOmittedWhileOpen(t *testing.T) {
	data, err := json.Marshal(AdoptionRequest{ID: "req-1", Status: RequestPending})
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "completed_at")
}

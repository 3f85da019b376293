package redpanda

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari200698/Mocksy/internal/domain"
)

func TestNewConsumerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewConsumer(nil, "group", 2, nil)
	require.Error(t, err)

	_, err = NewConsumer([]string{"localhost:9092"}, "", 2, nil)
	require.Error(t, err)
}

func TestNewProducerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestGenerateTaskPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := domain.GenerateTaskPayload{
		JobID:       "job-1",
		InterviewID: "int-1",
		FeedbackID:  "fb-1",
		Transcript: []domain.TranscriptTurn{
			{Role: domain.TurnInterviewer, Content: "Tell me about a project"},
			{Role: domain.TurnCandidate, Content: "I built a cache."},
		},
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)

	var got domain.GenerateTaskPayload
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, payload, got)
	assert.Contains(t, string(b), `"job_id":"job-1"`)
}

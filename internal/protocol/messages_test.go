package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent("ABC123", "VoteSubmitted", map[string]string{"participantName": "bob"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "VoteSubmitted", raw["type"])
	assert.Equal(t, "ABC123", raw["sessionCode"])
	assert.NotEmpty(t, raw["id"])
	assert.NotZero(t, raw["ts"])
	assert.Equal(t, map[string]any{"participantName": "bob"}, raw["payload"])
}

func TestEncodeEventRejectsUnmarshalablePayload(t *testing.T) {
	_, err := EncodeEvent("ABC123", "StoryAdded", make(chan int))
	assert.Error(t, err)
}

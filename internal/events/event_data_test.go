package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDataTypes verifies every payload reports the event type it belongs to
func TestEventDataTypes(t *testing.T) {
	tests := []struct {
		data     EventData
		expected EventType
	}{
		{&RunStartedData{}, RunStarted},
		{&PhaseStartedData{}, PhaseStarted},
		{&PhaseCompletedData{}, PhaseCompleted},
		{&RunCompletedData{}, RunCompleted},
		{&RunFailedData{}, RunFailed},
		{&ReportWrittenData{}, ReportWritten},
		{&DatasetGeneratedData{}, DatasetGenerated},
		{&ErrorEventData{}, ErrorOccurred},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.data.EventType())
	}
}

// TestEventJSONRoundTrip verifies an event decodes back into typed payload data
func TestEventJSONRoundTrip(t *testing.T) {
	event := &Event{
		Type:      PhaseCompleted,
		Module:    "harness",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Data: &PhaseCompletedData{
			RunID:      "run_123",
			Phase:      "ingest",
			DurationMS: 42.5,
		},
	}

	jsonData, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), "phase_completed")
	assert.Contains(t, string(jsonData), "run_123")

	var decoded Event
	require.NoError(t, json.Unmarshal(jsonData, &decoded))

	assert.Equal(t, PhaseCompleted, decoded.Type)
	assert.Equal(t, "harness", decoded.Module)

	data, ok := decoded.Data.(*PhaseCompletedData)
	require.True(t, ok, "expected typed payload, got %T", decoded.Data)
	assert.Equal(t, "run_123", data.RunID)
	assert.Equal(t, "ingest", data.Phase)
	assert.InDelta(t, 42.5, data.DurationMS, 1e-9)
}

// TestEventJSONRoundTripRunFailed verifies error payloads survive the trip
func TestEventJSONRoundTripRunFailed(t *testing.T) {
	event := &Event{
		Type:      RunFailed,
		Module:    "harness",
		Timestamp: time.Now().UTC(),
		Data: &RunFailedData{
			RunID: "run_456",
			Phase: "aggregate",
			Error: "portfolio file not found",
		},
	}

	jsonData, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(jsonData, &decoded))

	data, ok := decoded.Data.(*RunFailedData)
	require.True(t, ok)
	assert.Equal(t, "portfolio file not found", data.Error)
	assert.Equal(t, "aggregate", data.Phase)
}

// TestEventJSONUnknownType verifies unknown event types fall back to a generic map
func TestEventJSONUnknownType(t *testing.T) {
	raw := `{"type":"something_new","module":"future","timestamp":"2025-06-01T12:00:00Z","data":{"key":"value","count":2}}`

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))

	assert.Equal(t, EventType("something_new"), decoded.Type)

	generic, ok := decoded.Data.(*GenericEventData)
	require.True(t, ok)
	assert.Equal(t, EventType("something_new"), generic.EventType())
	assert.Equal(t, "value", generic.Data["key"])
	assert.Equal(t, float64(2), generic.Data["count"])
}

// TestEventJSONNoData verifies events without payloads still round trip
func TestEventJSONNoData(t *testing.T) {
	event := &Event{
		Type:      RunStarted,
		Module:    "harness",
		Timestamp: time.Now().UTC(),
	}

	jsonData, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, RunStarted, decoded.Type)
	assert.Nil(t, decoded.Data)
}

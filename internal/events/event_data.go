package events

import (
	"encoding/json"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	Dataset  string `json:"dataset"`
}

// EventType returns the event type for RunStartedData
func (d *RunStartedData) EventType() EventType {
	return RunStarted
}

// PhaseStartedData contains data for PhaseStarted events
type PhaseStartedData struct {
	RunID string `json:"run_id"`
	Phase string `json:"phase"`
}

// EventType returns the event type for PhaseStartedData
func (d *PhaseStartedData) EventType() EventType {
	return PhaseStarted
}

// PhaseCompletedData contains data for PhaseCompleted events
type PhaseCompletedData struct {
	RunID      string  `json:"run_id"`
	Phase      string  `json:"phase"`
	DurationMS float64 `json:"duration_ms"`
}

// EventType returns the event type for PhaseCompletedData
func (d *PhaseCompletedData) EventType() EventType {
	return PhaseCompleted
}

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID      string  `json:"run_id"`
	DurationMS float64 `json:"duration_ms"`
	ReportPath string  `json:"report_path,omitempty"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType {
	return RunCompleted
}

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id"`
	Phase string `json:"phase,omitempty"`
	Error string `json:"error"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType {
	return RunFailed
}

// ReportWrittenData contains data for ReportWritten events
type ReportWrittenData struct {
	RunID string   `json:"run_id"`
	Files []string `json:"files"`
}

// EventType returns the event type for ReportWrittenData
func (d *ReportWrittenData) EventType() EventType {
	return ReportWritten
}

// DatasetGeneratedData contains data for DatasetGenerated events
type DatasetGeneratedData struct {
	Path    string `json:"path"`
	Symbols int    `json:"symbols"`
	Rows    int    `json:"rows"`
}

// EventType returns the event type for DatasetGeneratedData
func (d *DatasetGeneratedData) EventType() EventType {
	return DatasetGenerated
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// MarshalJSON customizes JSON serialization for Event
func (e *Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	// Marshal the data separately
	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON customizes JSON deserialization for Event
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Unmarshal data based on event type
	if len(aux.Data) > 0 {
		var eventData EventData
		switch aux.Type {
		case RunStarted:
			eventData = &RunStartedData{}
		case PhaseStarted:
			eventData = &PhaseStartedData{}
		case PhaseCompleted:
			eventData = &PhaseCompletedData{}
		case RunCompleted:
			eventData = &RunCompletedData{}
		case RunFailed:
			eventData = &RunFailedData{}
		case ReportWritten:
			eventData = &ReportWrittenData{}
		case DatasetGenerated:
			eventData = &DatasetGeneratedData{}
		case ErrorOccurred:
			eventData = &ErrorEventData{}
		default:
			// For unknown types, use raw map
			var rawData map[string]interface{}
			if err := json.Unmarshal(aux.Data, &rawData); err != nil {
				return err
			}
			eventData = &GenericEventData{Type: aux.Type, Data: rawData}
		}

		if err := json.Unmarshal(aux.Data, eventData); err != nil {
			return err
		}
		e.Data = eventData
	}

	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}

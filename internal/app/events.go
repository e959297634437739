package app

// Stream event types. Within one job, chunk events arrive in generation
// order and a done or error event is always last.
const (
	EventTypeChunk = "chunk"
	EventTypeDone  = "done"
	EventTypeError = "error"
)

// StreamEvent is one frame of a live generation stream.
type StreamEvent struct {
	Type           string  `json:"type"`
	Content        string  `json:"content,omitempty"`
	Message        string  `json:"message,omitempty"`
	DocumentID     uint    `json:"document_id,omitempty"`
	Filename       string  `json:"filename,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
}

// EventSink delivers events to one connected client. Implementations must
// absorb delivery failures (a disconnected client) without returning them
// into the orchestrator's control flow.
type EventSink interface {
	Send(event StreamEvent)
}

func chunkEvent(content string) StreamEvent {
	return StreamEvent{Type: EventTypeChunk, Content: content}
}

func errorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventTypeError, Message: message}
}

package api

import (
	"time"

	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// Event types sent over /ws.
const (
	EventAnalysisStarted   = "analysis.started"
	EventEmbeddingProgress = "embedding.progress"
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// Event is one websocket message. RequestID ties pipeline events to the
// HTTP request that caused them.
type Event struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(eventType, requestID string, data any) *Event {
	return &Event{
		Type:      eventType,
		RequestID: requestID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// AnalysisStartedData announces a pipeline run.
type AnalysisStartedData struct {
	Name  string `json:"name,omitempty"`
	Moves int    `json:"moves"`
	Embed bool   `json:"embed"`
}

// EmbeddingProgressData reports embedded moves so far.
type EmbeddingProgressData struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// AnalysisCompletedData carries the summary of a finished run.
type AnalysisCompletedData struct {
	GraphID string             `json:"graphId"`
	Hash    string             `json:"hash"`
	Summary linkograph.Summary `json:"summary"`
}

// AnalysisFailedData carries the error of a failed run.
type AnalysisFailedData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Publisher receives pipeline events. *Hub implements it.
type Publisher interface {
	Publish(ev *Event)
}

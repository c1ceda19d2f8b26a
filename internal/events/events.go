package events

import (
	"encoding/json"
	"time"
)

const (
	TypeInvalidated = "pages_invalidated"
	TypePing        = "ping"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// InvalidationData tells the renderer which logical pages went stale and
// why. It decides what to do about them; we only signal.
type InvalidationData struct {
	Event string   `json:"event"`
	JobID string   `json:"job_id,omitempty"`
	Paths []string `json:"paths"`
}

func Make(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// MakeInvalidation is the envelope the webhook handler publishes after a
// successful mutation.
func MakeInvalidation(reqID, event, jobID string, paths []string) string {
	return Make(reqID, TypeInvalidated, 1, InvalidationData{
		Event: event,
		JobID: jobID,
		Paths: paths,
	})
}

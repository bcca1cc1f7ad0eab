// Package events is the in-process pub/sub feeding the SSE endpoint.
package events

import (
	"encoding/json"
	"time"
)

// Event types published by the pipeline and poller.
const (
	TypePollStarted    = "poll.started"
	TypePollFinished   = "poll.finished"
	TypeProjectAdded   = "project.added"
	TypeEmailFailed    = "email.failed"
	TypeConfigReloaded = "config.reloaded"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders one event as a JSON line ready for an SSE data frame.
func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   1,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

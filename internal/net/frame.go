package net

import (
	"encoding/json"
	"fmt"

	"github.com/tilewars/server/internal/world"
)

// Frame types on the wire. Clients send join first, then intent frames;
// the server answers with joined and pushes event frames once per tick.
const (
	FrameJoin   = "join"
	FrameIntent = "intent"
	FrameJoined = "joined"
	FrameEvent  = "event"
	FrameError  = "error"
)

// ClientFrame is a message from a client.
type ClientFrame struct {
	Type     string          `json:"type"`
	ClientID world.ClientID  `json:"clientID,omitempty"`
	Name     string          `json:"name,omitempty"`
	Flag     string          `json:"flag,omitempty"`
	Intent   json.RawMessage `json:"intent,omitempty"`
}

// ServerFrame is a message to a client.
type ServerFrame struct {
	Type     string         `json:"type"`
	ClientID world.ClientID `json:"clientID,omitempty"`
	Tick     world.Tick     `json:"tick,omitempty"`
	Event    string         `json:"event,omitempty"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func decodeClientFrame(raw []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Type {
	case FrameJoin, FrameIntent:
		return f, nil
	}
	return f, fmt.Errorf("unknown frame type %q", f.Type)
}

// EventFrame encodes a game event for delivery to a client.
func EventFrame(event string, tick world.Tick, data any) ([]byte, error) {
	return json.Marshal(ServerFrame{Type: FrameEvent, Event: event, Tick: tick, Data: data})
}

func errorFrame(msg string) []byte {
	b, _ := json.Marshal(ServerFrame{Type: FrameError, Error: msg})
	return b
}

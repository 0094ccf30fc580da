// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultRawCaptureLimit bounds the verbatim source text captured on
// dispatch events so a single oversized payload cannot pin arbitrary
// amounts of memory.
const DefaultRawCaptureLimit = 1 << 20

// errorTextLimit bounds the offending text attached to decode errors.
const errorTextLimit = 4096

// Event is an inbound gateway envelope. It is a closed set: the concrete
// types are DispatchEvent, HeartbeatEvent, ReconnectEvent,
// InvalidSessionEvent, HelloEvent and HeartbeatAckEvent.
type Event interface {
	event()
}

// DispatchEvent carries an application level event.
type DispatchEvent struct {
	// Seq is the sequence number of the event, acknowledged through
	// heartbeats and replayed from on resume.
	Seq int64
	// Type is the event name, such as MESSAGE_CREATE.
	Type string
	// Data is the event payload, left for the consumer to interpret.
	Data json.RawMessage
	// Raw is the verbatim envelope text as received, post decompression,
	// truncated to DefaultRawCaptureLimit. Consumers that need byte
	// exact replay read it instead of re-serializing Data.
	Raw string
}

// HeartbeatEvent is a server request for an immediate heartbeat.
type HeartbeatEvent struct{}

// ReconnectEvent is a server request to disconnect and resume.
type ReconnectEvent struct{}

// InvalidSessionEvent reports that the session was invalidated.
type InvalidSessionEvent struct {
	// Resumable is true when the session may still be resumed.
	Resumable bool
}

// HelloEvent is the first message of a connection.
type HelloEvent struct {
	HeartbeatInterval time.Duration
}

// HeartbeatAckEvent acknowledges a heartbeat.
type HeartbeatAckEvent struct{}

func (*DispatchEvent) event()       {}
func (*HeartbeatEvent) event()      {}
func (*ReconnectEvent) event()      {}
func (*InvalidSessionEvent) event() {}
func (*HelloEvent) event()          {}
func (*HeartbeatAckEvent) event()   {}

// EventDecodeError is returned when inbound text does not decode as a
// gateway event. It carries the offending text for diagnostics; the
// connection itself is still usable.
type EventDecodeError struct {
	// Data is the offending text, truncated for safety.
	Data    string
	Wrapped error
}

// Error implements the error interface.
func (e EventDecodeError) Error() string {
	return fmt.Sprintf("decoding gateway event: %v", e.Wrapped)
}

// Unwrap returns the underlying error.
func (e EventDecodeError) Unwrap() error {
	return e.Wrapped
}

type rawEvent struct {
	Op Opcode          `json:"op"`
	S  int64           `json:"s"`
	T  string          `json:"t"`
	D  json.RawMessage `json:"d"`
}

// DecodeEvent decodes one inbound envelope. Dispatch events additionally
// capture the verbatim source text.
func DecodeEvent(data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, EventDecodeError{Data: truncate(string(data), errorTextLimit), Wrapped: err}
	}

	switch raw.Op {
	case OpDispatch:
		return &DispatchEvent{
			Seq:  raw.S,
			Type: raw.T,
			Data: raw.D,
			Raw:  truncate(string(data), DefaultRawCaptureLimit),
		}, nil
	case OpHeartbeat:
		return &HeartbeatEvent{}, nil
	case OpReconnect:
		return &ReconnectEvent{}, nil
	case OpInvalidSession:
		var resumable bool
		if err := json.Unmarshal(raw.D, &resumable); err != nil {
			return nil, EventDecodeError{Data: truncate(string(data), errorTextLimit), Wrapped: err}
		}
		return &InvalidSessionEvent{Resumable: resumable}, nil
	case OpHello:
		var d struct {
			HeartbeatInterval int64 `json:"heartbeat_interval"`
		}
		if err := json.Unmarshal(raw.D, &d); err != nil {
			return nil, EventDecodeError{Data: truncate(string(data), errorTextLimit), Wrapped: err}
		}
		return &HelloEvent{HeartbeatInterval: time.Duration(d.HeartbeatInterval) * time.Millisecond}, nil
	case OpHeartbeatAck:
		return &HeartbeatAckEvent{}, nil
	}

	return nil, EventDecodeError{
		Data:    truncate(string(data), errorTextLimit),
		Wrapped: fmt.Errorf("unexpected opcode %d", raw.Op),
	}
}

// truncate bounds s to at most limit bytes, backing up to the previous
// rune boundary so the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEventHello(t *testing.T) {
	t.Parallel()

	const text = `{"t":null,"s":null,"op":10,"d":{"heartbeat_interval":41250,"_trace":["gateway-prd-main"]}}`
	ev, err := DecodeEvent([]byte(text))
	require.NoError(t, err)

	hello, ok := ev.(*HelloEvent)
	require.True(t, ok)
	assert.Equal(t, 41250*time.Millisecond, hello.HeartbeatInterval)
}

func TestDecodeEventDispatch(t *testing.T) {
	t.Parallel()

	const text = `{"t":"MESSAGE_CREATE","s":42,"op":0,"d":{"id":"81384788765712384","content":"hi"}}`
	ev, err := DecodeEvent([]byte(text))
	require.NoError(t, err)

	disp, ok := ev.(*DispatchEvent)
	require.True(t, ok)
	assert.Equal(t, int64(42), disp.Seq)
	assert.Equal(t, "MESSAGE_CREATE", disp.Type)
	assert.JSONEq(t, `{"id":"81384788765712384","content":"hi"}`, string(disp.Data))
	assert.Equal(t, text, disp.Raw)
}

func TestDecodeEventDispatchRawTruncated(t *testing.T) {
	t.Parallel()

	blob := strings.Repeat("a", DefaultRawCaptureLimit+512)
	text := `{"t":"MESSAGE_CREATE","s":7,"op":0,"d":{"content":"` + blob + `"}}`

	ev, err := DecodeEvent([]byte(text))
	require.NoError(t, err)

	disp := ev.(*DispatchEvent)
	assert.Len(t, disp.Raw, DefaultRawCaptureLimit)
	assert.Equal(t, text[:DefaultRawCaptureLimit], disp.Raw)
}

func TestDecodeEventControlKinds(t *testing.T) {
	testCases := []struct {
		desc string
		text string
		want Event
	}{
		{desc: "heartbeat request", text: `{"op":1,"d":null}`, want: &HeartbeatEvent{}},
		{desc: "reconnect", text: `{"op":7,"d":null}`, want: &ReconnectEvent{}},
		{desc: "invalid session resumable", text: `{"op":9,"d":true}`, want: &InvalidSessionEvent{Resumable: true}},
		{desc: "invalid session fatal", text: `{"op":9,"d":false}`, want: &InvalidSessionEvent{}},
		{desc: "invalid session null", text: `{"op":9,"d":null}`, want: &InvalidSessionEvent{}},
		{desc: "heartbeat ack", text: `{"op":11}`, want: &HeartbeatAckEvent{}},
	}

	for _, tc := range testCases {
		tc := tc // Capture range variable.

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			ev, err := DecodeEvent([]byte(tc.text))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ev)
		})
	}
}

func TestDecodeEventUnexpectedOpcode(t *testing.T) {
	t.Parallel()

	_, err := DecodeEvent([]byte(`{"op":4,"d":{}}`))

	var derr EventDecodeError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Error(), "unexpected opcode")
	assert.Equal(t, `{"op":4,"d":{}}`, derr.Data)
}

func TestDecodeEventMalformed(t *testing.T) {
	t.Parallel()

	const text = `{"op":`
	_, err := DecodeEvent([]byte(text))

	var derr EventDecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, text, derr.Data)
	assert.Error(t, derr.Unwrap())
}

func TestDecodeEncodedHeartbeat(t *testing.T) {
	t.Parallel()

	// The one envelope that crosses both directions decodes back to its
	// event form.
	seq := int64(9)
	data, err := EncodeHeartbeat(&seq)
	require.NoError(t, err)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, &HeartbeatEvent{}, ev)
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		desc  string
		in    string
		limit int
		want  string
	}{
		{desc: "short enough", in: "abc", limit: 8, want: "abc"},
		{desc: "exact", in: "abcd", limit: 4, want: "abcd"},
		{desc: "ascii cut", in: "abcdef", limit: 4, want: "abcd"},
		{desc: "multibyte boundary", in: "héllo", limit: 3, want: "hé"},
		{desc: "multibyte backup", in: "héllo", limit: 2, want: "h"},
	}

	for _, tc := range testCases {
		tc := tc // Capture range variable.

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			got := truncate(tc.in, tc.limit)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

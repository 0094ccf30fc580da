// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wstest

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// ZlibStreamFrames compresses each message on a shared deflate context
// and returns one sync-flushed frame per message, the shape the
// zlib-stream transport produces.
func ZlibStreamFrames(t *testing.T, messages ...string) [][]byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	frames := make([][]byte, 0, len(messages))
	prev := 0
	for _, message := range messages {
		if _, err := w.Write([]byte(message)); err != nil {
			t.Fatalf("compress message failed: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush message failed: %v", err)
		}
		frame := make([]byte, buf.Len()-prev)
		copy(frame, buf.Bytes()[prev:])
		frames = append(frames, frame)
		prev = buf.Len()
	}
	return frames
}

// ZstdStreamFrames is ZlibStreamFrames for the zstd-stream transport.
func ZstdStreamFrames(t *testing.T, messages ...string) [][]byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("create zstd writer failed: %v", err)
	}
	frames := make([][]byte, 0, len(messages))
	prev := 0
	for _, message := range messages {
		if _, err := w.Write([]byte(message)); err != nil {
			t.Fatalf("compress message failed: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush message failed: %v", err)
		}
		frame := make([]byte, buf.Len()-prev)
		copy(frame, buf.Bytes()[prev:])
		frames = append(frames, frame)
		prev = buf.Len()
	}
	return frames
}

// DeflatePayload compresses data as a standalone zlib payload, the shape
// of a payload-compressed binary frame.
func DeflatePayload(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress payload failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close payload writer failed: %v", err)
	}
	return buf.Bytes()
}

// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package compressor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zstdStreamChunks compresses each message into the same zstd stream with
// a flush after each one, returning the bytes the stream grew by per
// message, the way a zstd-stream connection frames them.
func zstdStreamChunks(t *testing.T, msgs ...string) [][]byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	defer w.Close()

	chunks := make([][]byte, 0, len(msgs))
	mark := 0
	for _, msg := range msgs {
		_, err := w.Write([]byte(msg))
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		chunk := make([]byte, buf.Len()-mark)
		copy(chunk, buf.Bytes()[mark:])
		chunks = append(chunks, chunk)
		mark = buf.Len()
	}
	return chunks
}

func newZstdForTest(t *testing.T) *zstdStreamInflater {
	t.Helper()

	z, err := newZstdStreamInflater()
	require.NoError(t, err)
	t.Cleanup(func() { _ = z.Close() })
	return z
}

func TestZstdStreamMessages(t *testing.T) {
	t.Parallel()

	msgs := []string{
		`{"op":10,"d":{"heartbeat_interval":41250}}`,
		`{"op":0,"s":1,"t":"READY","d":{"session_id":"deadbeef"}}`,
		`{"op":0,"s":2,"t":"READY","d":{"session_id":"deadbeef"}}`,
	}
	chunks := zstdStreamChunks(t, msgs...)

	z := newZstdForTest(t)
	for i, chunk := range chunks {
		out, err := z.Inflate(chunk)
		require.NoError(t, err, "message %d", i)
		assert.Equal(t, msgs[i], string(out), "message %d", i)
	}
}

func TestZstdStreamSplitFrames(t *testing.T) {
	t.Parallel()

	const msg = `{"op":7,"d":null}`
	data := zstdStreamChunks(t, msg)[0]

	z := newZstdForTest(t)

	// All bytes of the prefix are consumed without completing a message.
	out, err := z.Inflate(data[:len(data)-3])
	require.NoError(t, err)
	require.Nil(t, out)

	out, err = z.Inflate(data[len(data)-3:])
	require.NoError(t, err)
	assert.Equal(t, msg, string(out))
}

func TestZstdStreamIncomplete(t *testing.T) {
	t.Parallel()

	const msg = `{"op":9,"d":false}`
	data := zstdStreamChunks(t, msg)[0]

	z := newZstdForTest(t)
	out, err := z.Inflate(data[:5])
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestZstdStreamCorrupted(t *testing.T) {
	t.Parallel()

	z := newZstdForTest(t)

	// The decoder rejects the magic and leaves the rest of the buffer
	// unread. No progress on unread input is the corruption signal,
	// distinct from a plain decode failure.
	garbage := bytes.Repeat([]byte{0xFF}, 16)
	_, err := z.Inflate(garbage)
	require.ErrorIs(t, err, ErrZstdStreamCorrupted)

	// The stream never recovers.
	_, err = z.Inflate([]byte{0x00})
	require.ErrorIs(t, err, ErrZstdStreamCorrupted)
}

func TestZstdStreamDecodeFailure(t *testing.T) {
	t.Parallel()

	z := newZstdForTest(t)

	// Exactly the four magic bytes, all consumed before the decoder
	// fails: a decode failure, not the corruption condition.
	_, err := z.Inflate([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	var derr DecompressionError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ModeZstd, derr.Mode)
	assert.False(t, errors.Is(err, ErrZstdStreamCorrupted))
}

func TestZstdStreamClose(t *testing.T) {
	t.Parallel()

	z, err := newZstdStreamInflater()
	require.NoError(t, err)

	require.NoError(t, z.Close())
	require.NoError(t, z.Close())

	_, err = z.Inflate([]byte{0x01})
	require.ErrorIs(t, err, ErrInflaterClosed)
}

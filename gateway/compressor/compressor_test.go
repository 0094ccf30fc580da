// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		desc string
		mode Mode
		want interface{}
	}{
		{desc: "none", mode: ModeNone, want: &payloadInflater{}},
		{desc: "zlib-stream", mode: ModeZlib, want: &zlibStreamInflater{}},
		{desc: "zstd-stream", mode: ModeZstd, want: &zstdStreamInflater{}},
	}

	for _, tc := range testCases {
		tc := tc // Capture range variable.

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			got, err := New(tc.mode)
			require.NoError(t, err)
			defer func() { _ = got.Close() }()

			assert.IsType(t, tc.want, got)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()

		_, err := New(Mode(42))
		require.ErrorIs(t, err, ErrUnknownMode)
	})
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", ModeNone.String())
	assert.Equal(t, "zlib-stream", ModeZlib.String())
	assert.Equal(t, "zstd-stream", ModeZstd.String())
	assert.Equal(t, "invalid", Mode(42).String())
}

func TestModeQueryParameter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ModeNone.QueryParameter())
	assert.Equal(t, "&compress=zlib-stream", ModeZlib.QueryParameter())
	assert.Equal(t, "&compress=zstd-stream", ModeZstd.QueryParameter())
	assert.Equal(t, "", Mode(42).QueryParameter())
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeNone, ModeZlib, ModeZstd} {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}

	_, err := ParseMode("gzip")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

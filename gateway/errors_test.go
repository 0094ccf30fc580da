// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseCodeError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc string
		code int
		want error
	}{
		{desc: "not authenticated", code: 4003, want: ErrNoAuthentication},
		{desc: "authentication failed", code: 4004, want: ErrInvalidAuthentication},
		{desc: "invalid shard", code: 4010, want: ErrInvalidShardData},
		{desc: "sharding required", code: 4011, want: ErrOverloadedShard},
		{desc: "invalid intents", code: 4013, want: ErrInvalidGatewayIntents},
		{desc: "disallowed intents", code: 4014, want: ErrDisallowedGatewayIntents},
		{desc: "normal closure is recoverable", code: 1000, want: nil},
		{desc: "unknown error is recoverable", code: 4000, want: nil},
		{desc: "session timeout is recoverable", code: 4009, want: nil},
	}
	for _, tc := range testCases {
		tc := tc // Capture range variable.

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			err := CloseCodeError(tc.code)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("broken pipe")
	err := ConnectionError{ConnectionID: "gateway[-1]", Wrapped: cause, message: "failed to write"}
	assert.EqualError(t, err, "connection(gateway[-1]) failed to write: broken pipe")
	assert.ErrorIs(t, err, cause)

	bare := ConnectionError{ConnectionID: "<closed>", message: "connection is closed"}
	assert.EqualError(t, bare, "connection(<closed>) connection is closed")
	assert.NoError(t, bare.Unwrap())
}

func TestClosedError(t *testing.T) {
	t.Parallel()

	withText := ClosedError{Code: 4004, Text: "Authentication failed."}
	assert.EqualError(t, withText, "connection closed: 4004: Authentication failed.")

	bare := ClosedError{Code: 1001}
	assert.EqualError(t, bare, "connection closed: 1001")
}

// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayIntentsBits(t *testing.T) {
	t.Parallel()

	// The bit layout is fixed by the protocol, including the reserved gaps.
	assert.Equal(t, GatewayIntents(1<<15), IntentMessageContent)
	assert.Equal(t, GatewayIntents(1<<16), IntentGuildScheduledEvents)
	assert.Equal(t, GatewayIntents(1<<20), IntentAutoModerationConfiguration)
	assert.Equal(t, GatewayIntents(1<<25), IntentDirectMessagePolls)
}

func TestGatewayIntentsHas(t *testing.T) {
	testCases := []struct {
		desc  string
		have  GatewayIntents
		check GatewayIntents
		want  bool
	}{
		{desc: "single bit present", have: IntentGuilds | IntentGuildMessages, check: IntentGuildMessages, want: true},
		{desc: "single bit absent", have: IntentGuilds, check: IntentGuildMessages, want: false},
		{desc: "all bits present", have: IntentsAll(), check: IntentGuildMembers | IntentMessageContent, want: true},
		{desc: "partial overlap", have: IntentGuilds, check: IntentGuilds | IntentGuildMessages, want: false},
	}

	for _, tc := range testCases {
		tc := tc // Capture range variable.

		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.have.Has(tc.check))
		})
	}
}

func TestGatewayIntentsPrivileged(t *testing.T) {
	t.Parallel()

	assert.True(t, IntentsAll().IsPrivileged())
	assert.True(t, IntentGuildPresences.IsPrivileged())
	assert.False(t, IntentsNonPrivileged().IsPrivileged())
	assert.False(t, IntentsNonPrivileged().Has(IntentGuildMembers))
	assert.False(t, IntentsNonPrivileged().Has(IntentMessageContent))
	assert.True(t, IntentsNonPrivileged().Has(IntentGuilds))
}

func TestGatewayIntentsString(t *testing.T) {
	t.Parallel()

	got := (IntentGuilds | IntentMessageContent).String()
	assert.Equal(t, "[Guilds, MessageContent]", got)
	assert.Equal(t, "[]", GatewayIntents(0).String())
}

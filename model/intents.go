// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

import "strings"

// GatewayIntents is the bitset of event groups a gateway session subscribes
// to. The bit values are fixed by the Discord gateway protocol.
type GatewayIntents uint64

// These constants represent the individual intent bits.
const (
	IntentGuilds GatewayIntents = 1 << iota
	IntentGuildMembers
	IntentGuildModeration
	IntentGuildExpressions
	IntentGuildIntegrations
	IntentGuildWebhooks
	IntentGuildInvites
	IntentGuildVoiceStates
	IntentGuildPresences
	IntentGuildMessages
	IntentGuildMessageReactions
	IntentGuildMessageTyping
	IntentDirectMessages
	IntentDirectMessageReactions
	IntentDirectMessageTyping
	IntentMessageContent
	IntentGuildScheduledEvents
	_
	_
	_
	IntentAutoModerationConfiguration
	IntentAutoModerationExecution
	_
	_
	IntentGuildMessagePolls
	IntentDirectMessagePolls
)

var intentNames = []struct {
	bit  GatewayIntents
	name string
}{
	{IntentGuilds, "Guilds"},
	{IntentGuildMembers, "GuildMembers"},
	{IntentGuildModeration, "GuildModeration"},
	{IntentGuildExpressions, "GuildExpressions"},
	{IntentGuildIntegrations, "GuildIntegrations"},
	{IntentGuildWebhooks, "GuildWebhooks"},
	{IntentGuildInvites, "GuildInvites"},
	{IntentGuildVoiceStates, "GuildVoiceStates"},
	{IntentGuildPresences, "GuildPresences"},
	{IntentGuildMessages, "GuildMessages"},
	{IntentGuildMessageReactions, "GuildMessageReactions"},
	{IntentGuildMessageTyping, "GuildMessageTyping"},
	{IntentDirectMessages, "DirectMessages"},
	{IntentDirectMessageReactions, "DirectMessageReactions"},
	{IntentDirectMessageTyping, "DirectMessageTyping"},
	{IntentMessageContent, "MessageContent"},
	{IntentGuildScheduledEvents, "GuildScheduledEvents"},
	{IntentAutoModerationConfiguration, "AutoModerationConfiguration"},
	{IntentAutoModerationExecution, "AutoModerationExecution"},
	{IntentGuildMessagePolls, "GuildMessagePolls"},
	{IntentDirectMessagePolls, "DirectMessagePolls"},
}

// IntentsAll returns every intent bit, privileged ones included.
func IntentsAll() GatewayIntents {
	var all GatewayIntents
	for _, in := range intentNames {
		all |= in.bit
	}
	return all
}

// IntentsNonPrivileged returns every intent bit that can be requested
// without enabling privileged intents on the application.
func IntentsNonPrivileged() GatewayIntents {
	return IntentsAll() &^ (IntentGuildMembers | IntentGuildPresences | IntentMessageContent)
}

// Has returns true if all bits of other are set on gi.
func (gi GatewayIntents) Has(other GatewayIntents) bool {
	return gi&other == other
}

// IsPrivileged returns true if any set bit requires the application to have
// privileged intents enabled.
func (gi GatewayIntents) IsPrivileged() bool {
	return gi&(IntentGuildMembers|IntentGuildPresences|IntentMessageContent) != 0
}

// String implements the fmt.Stringer interface.
func (gi GatewayIntents) String() string {
	strs := make([]string, 0)
	for _, in := range intentNames {
		if gi&in.bit == in.bit {
			strs = append(strs, in.name)
		}
	}
	str := "["
	str += strings.Join(strs, ", ")
	str += "]"
	return str
}

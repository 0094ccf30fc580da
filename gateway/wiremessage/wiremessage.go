// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package wiremessage implements the {op, d} envelope protocol spoken over
// a gateway connection: typed encoders for the outbound control messages
// and the decoder for inbound event envelopes.
package wiremessage

import (
	"runtime"

	"github.com/google/uuid"

	"github.com/panekj/serenity/model"
)

// Opcode is the integer tag identifying the kind of a gateway envelope.
type Opcode uint8

// These constants represent the gateway opcodes. Opcode 5 is not assigned
// by the protocol.
const (
	OpDispatch            Opcode = 0
	OpHeartbeat           Opcode = 1
	OpIdentify            Opcode = 2
	OpPresenceUpdate      Opcode = 3
	OpVoiceStateUpdate    Opcode = 4
	OpResume              Opcode = 6
	OpReconnect           Opcode = 7
	OpRequestGuildMembers Opcode = 8
	OpInvalidSession      Opcode = 9
	OpHello               Opcode = 10
	OpHeartbeatAck        Opcode = 11
)

// String implements the fmt.Stringer interface.
func (op Opcode) String() string {
	switch op {
	case OpDispatch:
		return "Dispatch"
	case OpHeartbeat:
		return "Heartbeat"
	case OpIdentify:
		return "Identify"
	case OpPresenceUpdate:
		return "PresenceUpdate"
	case OpVoiceStateUpdate:
		return "VoiceStateUpdate"
	case OpResume:
		return "Resume"
	case OpReconnect:
		return "Reconnect"
	case OpRequestGuildMembers:
		return "RequestGuildMembers"
	case OpInvalidSession:
		return "InvalidSession"
	case OpHello:
		return "Hello"
	case OpHeartbeatAck:
		return "HeartbeatAck"
	}
	return "invalid"
}

// DefaultLargeThreshold is the member count above which a guild is sent
// offline-member-stripped, used when an Identify does not set one.
const DefaultLargeThreshold = 250

// IdentifyProperties carries the static client identification sent in an
// Identify.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// DefaultIdentifyProperties returns the library's own identification.
func DefaultIdentifyProperties() IdentifyProperties {
	return IdentifyProperties{
		OS:      runtime.GOOS,
		Browser: "serenity",
		Device:  "serenity",
	}
}

// Identify is the payload of the session-starting handshake message.
type Identify struct {
	Token   string
	Shard   model.ShardInfo
	Intents model.GatewayIntents
	// Presence is the initial presence to advertise.
	Presence model.PresenceData
	// Compress asks the server to individually deflate each payload. It
	// must only be set when no transport compression was negotiated.
	Compress bool
	// LargeThreshold falls back to DefaultLargeThreshold when zero.
	LargeThreshold uint8
	// Properties falls back to DefaultIdentifyProperties when zero.
	Properties IdentifyProperties
}

// Resume is the payload that restarts an interrupted session in place of
// an Identify.
type Resume struct {
	SessionID string
	Token     string
	Seq       int64
}

// ChunkGuild is the payload of a guild member chunk request.
type ChunkGuild struct {
	GuildID model.Snowflake
	// Limit caps how many members may be returned. Zero means no limit.
	Limit uint16
	// Presences requests member presences along with the chunks.
	Presences bool
	// Filter restricts which members are returned. A nil Filter behaves
	// like ChunkFilterNone.
	Filter ChunkGuildFilter
	// Nonce correlates the chunk responses with this request. Optional.
	Nonce string
}

// ChunkGuildFilter restricts which guild members a chunk request returns.
// It is a closed set: ChunkFilterNone, ChunkFilterQuery and
// ChunkFilterUserIDs are the only implementations.
type ChunkGuildFilter interface {
	chunkGuildFilter()
}

// ChunkFilterNone requests every member of the guild.
type ChunkFilterNone struct{}

// ChunkFilterQuery requests the members whose usernames start with the
// query string.
type ChunkFilterQuery string

// ChunkFilterUserIDs requests the members with the given IDs.
type ChunkFilterUserIDs []model.Snowflake

func (ChunkFilterNone) chunkGuildFilter()    {}
func (ChunkFilterQuery) chunkGuildFilter()   {}
func (ChunkFilterUserIDs) chunkGuildFilter() {}

// NewNonce returns a nonce suitable for correlating a chunk request with
// its responses.
func NewNonce() string {
	return uuid.NewString()
}

// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"encoding/json"
	"time"

	"github.com/panekj/serenity/model"
)

// envelope is the uniform wire form of every outbound message.
type envelope struct {
	Op Opcode      `json:"op"`
	D  interface{} `json:"d"`
}

func encodeEnvelope(op Opcode, d interface{}) ([]byte, error) {
	return json.Marshal(envelope{Op: op, D: d})
}

// presenceData is the wire form of a presence, embedded in an Identify
// and sent standalone by a presence update.
type presenceData struct {
	AFK        bool                 `json:"afk"`
	Status     string               `json:"status"`
	Since      int64                `json:"since"`
	Activities []model.ActivityData `json:"activities"`
}

func newPresenceData(p model.PresenceData) presenceData {
	return presenceData{
		AFK:        false,
		Status:     p.Status.Name(),
		Since:      time.Now().UnixMilli(),
		Activities: p.Activities(),
	}
}

// EncodeHeartbeat encodes a heartbeat carrying the last received sequence
// number, or null when none has been seen yet.
func EncodeHeartbeat(seq *int64) ([]byte, error) {
	return encodeEnvelope(OpHeartbeat, seq)
}

type identifyData struct {
	Token          string               `json:"token"`
	Shard          model.ShardInfo      `json:"shard"`
	Intents        model.GatewayIntents `json:"intents"`
	Compress       bool                 `json:"compress"`
	LargeThreshold uint8                `json:"large_threshold"`
	Properties     IdentifyProperties   `json:"properties"`
	Presence       presenceData         `json:"presence"`
}

// EncodeIdentify encodes the session-starting handshake message, applying
// the documented defaults for LargeThreshold and Properties.
func EncodeIdentify(p Identify) ([]byte, error) {
	if p.LargeThreshold == 0 {
		p.LargeThreshold = DefaultLargeThreshold
	}
	if p.Properties == (IdentifyProperties{}) {
		p.Properties = DefaultIdentifyProperties()
	}

	return encodeEnvelope(OpIdentify, identifyData{
		Token:          p.Token,
		Shard:          p.Shard,
		Intents:        p.Intents,
		Compress:       p.Compress,
		LargeThreshold: p.LargeThreshold,
		Properties:     p.Properties,
		Presence:       newPresenceData(p.Presence),
	})
}

type resumeData struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Seq       int64  `json:"seq"`
}

// EncodeResume encodes the message that resumes an interrupted session.
func EncodeResume(p Resume) ([]byte, error) {
	return encodeEnvelope(OpResume, resumeData(p))
}

// EncodePresenceUpdate encodes a standalone presence update.
func EncodePresenceUpdate(p model.PresenceData) ([]byte, error) {
	return encodeEnvelope(OpPresenceUpdate, newPresenceData(p))
}

// The query and user_ids fields are mutually exclusive on the wire, so
// each filter kind gets its own payload shape.
type chunkGuildQueryData struct {
	GuildID   model.Snowflake `json:"guild_id"`
	Query     string          `json:"query"`
	Limit     uint16          `json:"limit"`
	Presences bool            `json:"presences"`
	Nonce     string          `json:"nonce"`
}

type chunkGuildUserIDsData struct {
	GuildID   model.Snowflake   `json:"guild_id"`
	Limit     uint16            `json:"limit"`
	Presences bool              `json:"presences"`
	UserIDs   []model.Snowflake `json:"user_ids"`
	Nonce     string            `json:"nonce"`
}

// EncodeChunkGuild encodes a guild member chunk request.
func EncodeChunkGuild(p ChunkGuild) ([]byte, error) {
	var d interface{}
	switch filter := p.Filter.(type) {
	case ChunkFilterQuery:
		d = chunkGuildQueryData{
			GuildID:   p.GuildID,
			Query:     string(filter),
			Limit:     p.Limit,
			Presences: p.Presences,
			Nonce:     p.Nonce,
		}
	case ChunkFilterUserIDs:
		ids := filter
		if ids == nil {
			ids = ChunkFilterUserIDs{}
		}
		d = chunkGuildUserIDsData{
			GuildID:   p.GuildID,
			Limit:     p.Limit,
			Presences: p.Presences,
			UserIDs:   ids,
			Nonce:     p.Nonce,
		}
	default: // ChunkFilterNone and nil
		d = chunkGuildQueryData{
			GuildID:   p.GuildID,
			Query:     "",
			Limit:     p.Limit,
			Presences: p.Presences,
			Nonce:     p.Nonce,
		}
	}
	return encodeEnvelope(OpRequestGuildMembers, d)
}

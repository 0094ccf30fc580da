// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package gateway

import (
	"errors"
	"fmt"
)

// These sentinel errors enumerate the gateway failure kinds that are not
// tied to a single connection operation. Most are produced by the session
// driver from close codes and handshake sequencing, not by the transport
// itself.
var (
	// ErrBuildingURL is returned when a gateway URL cannot be built.
	ErrBuildingURL = errors.New("error building gateway url")

	// ErrExpectedHello is returned when the first message of a connection
	// is not a Hello.
	ErrExpectedHello = errors.New("expected a hello")

	// ErrInvalidHandshake is returned when a Ready or InvalidSession was
	// expected and something else arrived.
	ErrInvalidHandshake = errors.New("expected a valid handshake")

	// ErrHeartbeatFailed is returned when a heartbeat could not be sent.
	ErrHeartbeatFailed = errors.New("failed sending a heartbeat")

	// ErrInvalidAuthentication is returned when the identify token was
	// rejected.
	ErrInvalidAuthentication = errors.New("sent invalid authentication")

	// ErrNoAuthentication is returned when the identify carried no token.
	ErrNoAuthentication = errors.New("sent no authentication")

	// ErrInvalidShardData is returned when the identify shard data was
	// rejected, for example shard 5 of 3.
	ErrInvalidShardData = errors.New("sent invalid shard data")

	// ErrNoSessionID is returned when a resume was attempted without a
	// session id.
	ErrNoSessionID = errors.New("no session id present when required")

	// ErrOverloadedShard is returned when a shard would be assigned more
	// guilds than the service allows per shard.
	ErrOverloadedShard = errors.New("shard has too many guilds")

	// ErrReconnectFailure is returned when reconnecting failed repeatedly.
	ErrReconnectFailure = errors.New("failed to reconnect")

	// ErrInvalidGatewayIntents is returned when undocumented intent bits
	// were provided.
	ErrInvalidGatewayIntents = errors.New("invalid gateway intents were provided")

	// ErrDisallowedGatewayIntents is returned when privileged intents
	// were provided without being enabled for the application.
	ErrDisallowedGatewayIntents = errors.New("disallowed gateway intents were provided")

	// ErrInvalidUTF8 is returned when a decompressed payload is not valid
	// UTF-8 and therefore cannot be event text.
	ErrInvalidUTF8 = errors.New("decompressed payload is not valid utf-8")
)

// ErrConnClosed is returned by operations on a connection after Close.
var ErrConnClosed = ConnectionError{ConnectionID: "<closed>", message: "connection is closed"}

// ConnectionError represents a transport level failure of a connection
// operation.
type ConnectionError struct {
	ConnectionID string
	Wrapped      error

	message string
}

// Error implements the error interface.
func (e ConnectionError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("connection(%s) %s: %s", e.ConnectionID, e.message, e.Wrapped.Error())
	}
	return fmt.Sprintf("connection(%s) %s", e.ConnectionID, e.message)
}

// Unwrap returns the underlying error.
func (e ConnectionError) Unwrap() error {
	return e.Wrapped
}

// ClosedError is returned when the peer closed the connection, possibly
// uncleanly. It is deliberately distinct from the silent no-event result
// of a receive timeout: an explicit close must be visible to the caller.
type ClosedError struct {
	// Code is the close code sent by the peer, or zero if none was.
	Code int
	// Text is the close reason, if any.
	Text string
}

// Error implements the error interface.
func (e ClosedError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("connection closed: %d: %s", e.Code, e.Text)
	}
	return fmt.Sprintf("connection closed: %d", e.Code)
}

// These constants are the close codes the service uses to reject a
// session.
const (
	closeCodeNotAuthenticated  = 4003
	closeCodeAuthFailed        = 4004
	closeCodeInvalidShard      = 4010
	closeCodeShardingRequired  = 4011
	closeCodeInvalidIntents    = 4013
	closeCodeDisallowedIntents = 4014
)

// CloseCodeError maps a close code onto the sentinel error describing why
// the session was rejected. It returns nil for codes that do not indicate
// a caller mistake, meaning the session may simply reconnect.
func CloseCodeError(code int) error {
	switch code {
	case closeCodeNotAuthenticated:
		return ErrNoAuthentication
	case closeCodeAuthFailed:
		return ErrInvalidAuthentication
	case closeCodeInvalidShard:
		return ErrInvalidShardData
	case closeCodeShardingRequired:
		return ErrOverloadedShard
	case closeCodeInvalidIntents:
		return ErrInvalidGatewayIntents
	case closeCodeDisallowedIntents:
		return ErrDisallowedGatewayIntents
	}
	return nil
}

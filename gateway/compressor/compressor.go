// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package compressor implements the transport decompression strategies a
// gateway connection can negotiate. A connection selects exactly one Mode
// at dial time and feeds every inbound binary frame through the Inflater
// built for it. Outbound traffic is never compressed by this layer.
package compressor

import (
	"errors"
	"fmt"
)

// Mode identifies the transport compression negotiated for a connection.
type Mode uint8

// These constants represent the supported transport compression modes.
const (
	// ModeNone performs no stream compression. Each binary frame is an
	// independent zlib payload, requested through the identify compress
	// flag instead of the connection URL.
	ModeNone Mode = iota
	// ModeZlib shares one zlib stream across all binary frames of the
	// connection. Message boundaries are marked by a sync flush.
	ModeZlib
	// ModeZstd shares one zstd stream across all binary frames of the
	// connection.
	ModeZstd
)

// String implements the fmt.Stringer interface.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeZlib:
		return "zlib-stream"
	case ModeZstd:
		return "zstd-stream"
	}
	return "invalid"
}

// QueryParameter returns the URL fragment that requests the mode during
// the gateway handshake. ModeNone requests nothing.
func (m Mode) QueryParameter() string {
	switch m {
	case ModeZlib:
		return "&compress=zlib-stream"
	case ModeZstd:
		return "&compress=zstd-stream"
	}
	return ""
}

// ParseMode returns the Mode with the given name, accepting the names
// String returns.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none":
		return ModeNone, nil
	case "zlib-stream":
		return ModeZlib, nil
	case "zstd-stream":
		return ModeZstd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// scratchCapacity is the chunk size used when draining an inflater.
const scratchCapacity = 64 * 1024

// Inflater reconstructs logical message text from the binary frames of a
// gateway connection. Implementations are stateful and not safe for
// concurrent use.
type Inflater interface {
	// Inflate consumes one binary frame. It returns the recovered message
	// once a frame completes one, or (nil, nil) when more frames are
	// needed. Fed bytes are retained across calls until a message is
	// extracted. The returned slice is an owned copy.
	Inflate(frame []byte) ([]byte, error)

	// Close releases the resources held by the inflater. The inflater
	// must not be used afterward.
	Close() error
}

// New returns an Inflater for the given mode. An unrecognized mode fails
// here so that a misconfigured connection is rejected before dialing, not
// on the first frame.
func New(mode Mode) (Inflater, error) {
	switch mode {
	case ModeNone:
		return newPayloadInflater(), nil
	case ModeZlib:
		return newZlibStreamInflater(), nil
	case ModeZstd:
		return newZstdStreamInflater()
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
}

var (
	// ErrUnknownMode is returned by New for a mode it has no strategy for.
	ErrUnknownMode = errors.New("unknown transport compression mode")

	// ErrZstdStreamCorrupted is returned when fed input can no longer be
	// consumed because the shared zstd stream has failed. It is distinct
	// from a DecompressionError so callers can tell a poisoned stream
	// from a single undecodable frame.
	ErrZstdStreamCorrupted = errors.New("zstd stream corrupted")

	// ErrInflaterClosed is returned when feeding an inflater after Close.
	ErrInflaterClosed = errors.New("inflater closed")
)

// DecompressionError is returned when a frame cannot be decompressed.
type DecompressionError struct {
	// Mode is the transport compression mode of the failing inflater.
	Mode Mode
	// Wrapped is the underlying decoder error.
	Wrapped error
}

// Error implements the error interface.
func (e DecompressionError) Error() string {
	return fmt.Sprintf("%s decompression failed: %v", e.Mode, e.Wrapped)
}

// Unwrap returns the underlying error.
func (e DecompressionError) Unwrap() error {
	return e.Wrapped
}

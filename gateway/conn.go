// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package gateway implements the websocket transport of the gateway
// protocol: connecting, transparent transport decompression, sending the
// typed control messages and receiving decoded event envelopes. It holds
// no session state; heartbeating, identifying and reconnect policy are
// the caller's.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/panekj/serenity/gateway/compressor"
	"github.com/panekj/serenity/gateway/wiremessage"
	"github.com/panekj/serenity/model"
)

const closeWriteTimeout = 5 * time.Second

var globalConnectionID uint64

func nextConnectionID() uint64 { return atomic.AddUint64(&globalConnectionID, 1) }

type readResult struct {
	messageType int
	data        []byte
}

// Conn is a single live websocket connection to the gateway. It owns the
// decompression state negotiated at connect time and a pump goroutine
// that reads frames off the socket.
//
// A Conn performs no retries and holds no session state; reconnecting,
// heartbeating and resuming are driven by the caller.
type Conn struct {
	id       string
	mode     compressor.Mode
	ws       *websocket.Conn
	inflater compressor.Inflater
	cfg      *connConfig
	log      logrus.Ext1FieldLogger

	writeLock sync.Mutex

	// frames carries frames from the pump to receivers. The pump closes
	// it when the socket fails, after recording the error in readErr.
	frames chan readResult
	stop   chan struct{}

	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	readErr error
	closed  bool
}

// Connect dials the gateway at urlStr, which should come from
// BuildGatewayURL with the same mode. The mode's inflater is constructed
// before the dial so that configuration errors surface without touching
// the network.
func Connect(ctx context.Context, urlStr string, mode compressor.Mode, opts ...ConnOption) (*Conn, error) {
	cfg, err := newConnConfig(opts...)
	if err != nil {
		return nil, err
	}

	inflater, err := compressor.New(mode)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("gateway[-%d]", nextConnectionID())

	ws, _, err := cfg.dialer.DialContext(ctx, urlStr, nil)
	if err != nil {
		_ = inflater.Close()
		return nil, ConnectionError{
			ConnectionID: id,
			Wrapped:      errors.Wrap(err, "failed to dial gateway"),
			message:      "failed to connect",
		}
	}

	c := &Conn{
		id:       id,
		mode:     mode,
		ws:       ws,
		inflater: inflater,
		cfg:      cfg,
		log:      cfg.logger.WithField("connection_id", id),
		frames:   make(chan readResult),
		stop:     make(chan struct{}),
	}
	c.log.WithField("mode", mode.String()).Debug("connected to gateway")

	go c.readLoop()
	return c, nil
}

// ID returns the identifier assigned to this connection for logs and
// errors.
func (c *Conn) ID() string { return c.id }

// readLoop pumps frames from the socket to receivers. Receive timeouts
// live on a channel select instead of the socket read deadline, because a
// deadline that fires mid-frame poisons the websocket.
func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
		select {
		case c.frames <- readResult{messageType: messageType, data: data}:
		case <-c.stop:
			return
		}
	}
}

// terminalError reports why the read side shut down.
func (c *Conn) terminalError() error {
	c.mu.Lock()
	readErr := c.readErr
	closed := c.closed
	c.mu.Unlock()

	var closeErr *websocket.CloseError
	if errors.As(readErr, &closeErr) {
		return ClosedError{Code: closeErr.Code, Text: closeErr.Text}
	}
	if closed {
		return ErrConnClosed
	}
	return ConnectionError{ConnectionID: c.id, Wrapped: readErr, message: "failed to read"}
}

// ReadEvent waits up to the receive timeout for the next event.
//
// A nil event with a nil error means no event was available in time, or
// ctx was done, or the frame that arrived did not complete an event yet;
// the caller is expected to poll again after doing other work, such as
// heartbeating. A peer close surfaces as ClosedError and every receive
// after it reports the same condition. Decompression and decode failures
// are returned without closing the socket.
func (c *Conn) ReadEvent(ctx context.Context) (wiremessage.Event, error) {
	timer := time.NewTimer(c.cfg.recvTimeout)
	defer timer.Stop()

	var res readResult
	select {
	case r, ok := <-c.frames:
		if !ok {
			return nil, c.terminalError()
		}
		res = r
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}

	switch res.messageType {
	case websocket.TextMessage:
		return c.decodeEvent(res.data)
	case websocket.BinaryMessage:
		text, err := c.inflater.Inflate(res.data)
		if err != nil {
			c.log.WithError(err).WithField("frame_bytes", len(res.data)).Warn("failed decompressing frame")
			return nil, err
		}
		if text == nil {
			return nil, nil
		}
		if !utf8.Valid(text) {
			return nil, ErrInvalidUTF8
		}
		return c.decodeEvent(text)
	default:
		return nil, nil
	}
}

func (c *Conn) decodeEvent(text []byte) (wiremessage.Event, error) {
	event, err := wiremessage.DecodeEvent(text)
	if err != nil {
		var decodeErr wiremessage.EventDecodeError
		if errors.As(err, &decodeErr) {
			c.log.WithField("text", decodeErr.Data).Debug("failed decoding gateway event")
		}
		return nil, err
	}
	if dispatch, ok := event.(*wiremessage.DispatchEvent); ok && len(dispatch.Raw) > c.cfg.rawCaptureLimit {
		dispatch.Raw = truncateRaw(dispatch.Raw, c.cfg.rawCaptureLimit)
	}
	return event, nil
}

// truncateRaw cuts s down to at most limit bytes without splitting a
// rune.
func truncateRaw(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	for limit > 0 && limit < len(s) && !utf8.RuneStart(s[limit]) {
		limit--
	}
	if limit < len(s) {
		s = s[:limit]
	}
	return s
}

// NextMessage returns the next raw frame without decompressing or
// decoding it. Unlike ReadEvent it blocks until a frame arrives, the
// connection shuts down or ctx is done.
func (c *Conn) NextMessage(ctx context.Context) (int, []byte, error) {
	select {
	case res, ok := <-c.frames:
		if !ok {
			return 0, nil, c.terminalError()
		}
		return res.messageType, res.data, nil
	case <-ctx.Done():
		return 0, nil, ConnectionError{ConnectionID: c.id, Wrapped: ctx.Err(), message: "failed to read"}
	}
}

// Send transmits a single frame of the given websocket message type.
// Writes are serialized internally and a ctx deadline, when present,
// bounds the write.
func (c *Conn) Send(ctx context.Context, messageType int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return ConnectionError{ConnectionID: c.id, Wrapped: err, message: "failed to write"}
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if c.isClosed() {
		return ErrConnClosed
	}

	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return ConnectionError{ConnectionID: c.id, Wrapped: err, message: "failed to set write deadline"}
	}
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return ConnectionError{ConnectionID: c.id, Wrapped: err, message: "unable to write message to network"}
	}
	return nil
}

// SendJSON marshals v and sends it as a single text frame.
func (c *Conn) SendJSON(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ConnectionError{ConnectionID: c.id, Wrapped: err, message: "failed to encode message"}
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

// SendHeartbeat sends a heartbeat carrying the last seen sequence
// number, or null when none has been seen yet.
func (c *Conn) SendHeartbeat(ctx context.Context, seq *int64) error {
	if seq != nil {
		c.log.WithField("seq", *seq).Trace("sending heartbeat")
	} else {
		c.log.Trace("sending heartbeat")
	}
	data, err := wiremessage.EncodeHeartbeat(seq)
	if err != nil {
		return err
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

// SendIdentify starts a new session. The payload compression flag is
// derived from the connection's transport compression mode; any value the
// caller set is discarded. An unset large threshold or properties falls
// back to the connection's configured values.
func (c *Conn) SendIdentify(ctx context.Context, p wiremessage.Identify) error {
	p.Compress = c.mode == compressor.ModeNone
	if p.LargeThreshold == 0 {
		p.LargeThreshold = c.cfg.largeThreshold
	}
	if p.Properties == (wiremessage.IdentifyProperties{}) {
		p.Properties = c.cfg.identifyProperties
	}
	c.log.WithField("shard", p.Shard.String()).Debug("identifying")
	data, err := wiremessage.EncodeIdentify(p)
	if err != nil {
		return err
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

// SendResume restarts an interrupted session in place of identifying.
func (c *Conn) SendResume(ctx context.Context, p wiremessage.Resume) error {
	c.log.WithField("seq", p.Seq).Debug("sending resume")
	data, err := wiremessage.EncodeResume(p)
	if err != nil {
		return err
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

// SendPresenceUpdate replaces the presence of this connection's session.
func (c *Conn) SendPresenceUpdate(ctx context.Context, p model.PresenceData) error {
	c.log.WithField("status", p.Status.Name()).Debug("sending presence update")
	data, err := wiremessage.EncodePresenceUpdate(p)
	if err != nil {
		return err
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

// SendChunkGuild requests member chunks for a guild.
func (c *Conn) SendChunkGuild(ctx context.Context, p wiremessage.ChunkGuild) error {
	c.log.WithField("guild_id", p.GuildID.String()).Debug("requesting member chunks")
	data, err := wiremessage.EncodeChunkGuild(p)
	if err != nil {
		return err
	}
	return c.Send(ctx, websocket.TextMessage, data)
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close writes a close frame with the given code and text best-effort,
// stops the pump and releases the socket and decompression state. It is
// idempotent; later calls return the first result.
func (c *Conn) Close(code int, text string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		message := websocket.FormatCloseMessage(code, text)
		deadline := time.Now().Add(closeWriteTimeout)
		if err := c.ws.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
			c.log.WithError(err).Debug("failed writing close frame")
		}

		close(c.stop)
		err := c.ws.Close()
		if ierr := c.inflater.Close(); err == nil {
			err = ierr
		}
		if err != nil {
			c.closeErr = ConnectionError{ConnectionID: c.id, Wrapped: err, message: "failed to close"}
		}
		c.log.Debug("connection closed")
	})
	return c.closeErr
}

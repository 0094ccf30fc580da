// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/panekj/serenity/gateway/wiremessage"
)

// DefaultRecvTimeout is how long ReadEvent waits for a frame before
// reporting that no event is available.
const DefaultRecvTimeout = 500 * time.Millisecond

const defaultHandshakeTimeout = 30 * time.Second

type connConfig struct {
	dialer             *websocket.Dialer
	handshakeTimeout   time.Duration
	recvTimeout        time.Duration
	logger             logrus.Ext1FieldLogger
	rawCaptureLimit    int
	largeThreshold     uint8
	identifyProperties wiremessage.IdentifyProperties
}

func newConnConfig(opts ...ConnOption) (*connConfig, error) {
	cfg := &connConfig{
		handshakeTimeout: defaultHandshakeTimeout,
		recvTimeout:      DefaultRecvTimeout,
		rawCaptureLimit:  wiremessage.DefaultRawCaptureLimit,
	}

	for _, opt := range opts {
		err := opt(cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.logger = l
	}

	if cfg.dialer == nil {
		cfg.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.handshakeTimeout,
		}
	}

	return cfg, nil
}

// ConnOption is used to configure a connection.
type ConnOption func(*connConfig) error

// WithDialer configures the websocket dialer used to reach the gateway.
// The default dialer honors proxy environment variables and the
// configured handshake timeout.
func WithDialer(fn func(*websocket.Dialer) *websocket.Dialer) ConnOption {
	return func(c *connConfig) error {
		c.dialer = fn(c.dialer)
		return nil
	}
}

// WithHandshakeTimeout configures how long the default dialer waits for
// the websocket handshake to complete.
func WithHandshakeTimeout(fn func(time.Duration) time.Duration) ConnOption {
	return func(c *connConfig) error {
		c.handshakeTimeout = fn(c.handshakeTimeout)
		return nil
	}
}

// WithRecvTimeout configures how long ReadEvent waits for a frame before
// returning with no event.
func WithRecvTimeout(fn func(time.Duration) time.Duration) ConnOption {
	return func(c *connConfig) error {
		c.recvTimeout = fn(c.recvTimeout)
		return nil
	}
}

// WithLogger configures the logger for the connection.
func WithLogger(fn func(logrus.Ext1FieldLogger) logrus.Ext1FieldLogger) ConnOption {
	return func(c *connConfig) error {
		c.logger = fn(c.logger)
		return nil
	}
}

// WithRawCaptureLimit configures the maximum number of bytes of dispatch
// text retained on DispatchEvent.Raw.
func WithRawCaptureLimit(fn func(int) int) ConnOption {
	return func(c *connConfig) error {
		c.rawCaptureLimit = fn(c.rawCaptureLimit)
		return nil
	}
}

// WithLargeThreshold configures the member count above which the service
// stops sending offline guild members, applied to identifies that do not
// set their own.
func WithLargeThreshold(fn func(uint8) uint8) ConnOption {
	return func(c *connConfig) error {
		c.largeThreshold = fn(c.largeThreshold)
		return nil
	}
}

// WithIdentifyProperties configures the connection properties applied to
// identifies that do not set their own.
func WithIdentifyProperties(fn func(wiremessage.IdentifyProperties) wiremessage.IdentifyProperties) ConnOption {
	return func(c *connConfig) error {
		c.identifyProperties = fn(c.identifyProperties)
		return nil
	}
}

// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package wstest provides an in-process websocket endpoint that plays the
// gateway side of a connection in transport tests.
package wstest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const timeout = 5 * time.Second

// Server is a scripted websocket peer. Tests dial its URL, call Accept,
// then drive the conversation with the Send and ReadMessage helpers.
type Server struct {
	httpSrv *httptest.Server
	connCh  chan *websocket.Conn

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewServer starts a websocket server that accepts a single connection.
// It is shut down with the test.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{connCh: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case s.connCh <- conn:
		default:
			_ = conn.Close()
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// URL returns the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http")
}

// Accept waits for a client to connect. The Send and ReadMessage helpers
// require it to have been called.
func (s *Server) Accept(t *testing.T) {
	t.Helper()
	select {
	case conn := <-s.connCh:
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
	case <-time.After(timeout):
		t.Fatal("no client connected in time")
	}
}

func (s *Server) client(t *testing.T) *websocket.Conn {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		t.Fatal("no accepted connection; call Accept first")
	}
	return s.conn
}

// SendText sends a single text frame to the client.
func (s *Server) SendText(t *testing.T, text string) {
	t.Helper()
	if err := s.client(t).WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		t.Fatalf("write text frame failed: %v", err)
	}
}

// SendBinary sends a single binary frame to the client.
func (s *Server) SendBinary(t *testing.T, data []byte) {
	t.Helper()
	if err := s.client(t).WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write binary frame failed: %v", err)
	}
}

// SendClose sends a close frame with the given code and reason.
func (s *Server) SendClose(t *testing.T, code int, text string) {
	t.Helper()
	message := websocket.FormatCloseMessage(code, text)
	deadline := time.Now().Add(timeout)
	if err := s.client(t).WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		t.Fatalf("write close frame failed: %v", err)
	}
}

// ReadMessage returns the next message sent by the client.
func (s *Server) ReadMessage(t *testing.T) (int, []byte) {
	t.Helper()
	conn := s.client(t)
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read client message failed: %v", err)
	}
	return messageType, data
}

// Close tears down the accepted connection and the listener.
func (s *Server) Close() {
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
	s.httpSrv.Close()
}

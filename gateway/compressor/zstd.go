// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package compressor

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdStreamInflater implements ModeZstd with one zstd decoder shared
// across all frames of the connection. The decoder pulls its input, so
// the inflater bridges the push style frame feed to it: Inflate hands the
// frame to the decoder through Read, then waits until the decoder has
// consumed everything it can and parked for more, at which point the
// output collected by the pump goroutine is the complete result for this
// frame. The decoder runs with concurrency one, so it never pulls input
// while it still holds decoded output to return.
type zstdStreamInflater struct {
	mu   sync.Mutex
	cond *sync.Cond

	// input holds fed compressed bytes the decoder has not pulled yet.
	input []byte
	// output holds decoded bytes the caller has not collected yet.
	output []byte
	// starved is set while the decoder is parked in Read with no input.
	starved bool
	// failed is the first decoder error. The pump exits after setting it.
	failed error
	closed bool
	done   chan struct{}

	decoder *zstd.Decoder
}

func newZstdStreamInflater() (*zstdStreamInflater, error) {
	z := &zstdStreamInflater{done: make(chan struct{})}
	z.cond = sync.NewCond(&z.mu)

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	if err := decoder.Reset(z); err != nil {
		decoder.Close()
		return nil, err
	}
	z.decoder = decoder

	go z.pump()
	return z, nil
}

func (z *zstdStreamInflater) Inflate(frame []byte) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil, ErrInflaterClosed
	}
	if z.failed != nil {
		// The decoder is gone. Input it never consumed, this frame
		// included, can make no progress.
		if len(z.input) > 0 || len(frame) > 0 {
			return nil, ErrZstdStreamCorrupted
		}
		return nil, DecompressionError{Mode: ModeZstd, Wrapped: z.failed}
	}

	z.input = append(z.input, frame...)
	z.starved = false
	z.cond.Broadcast()
	for !z.starved && z.failed == nil {
		z.cond.Wait()
	}

	if z.failed != nil {
		if len(z.input) > 0 {
			// The decoder died leaving part of this frame unread. The
			// stream can never recover.
			return nil, ErrZstdStreamCorrupted
		}
		return nil, DecompressionError{Mode: ModeZstd, Wrapped: z.failed}
	}

	if len(z.output) == 0 {
		// Everything was consumed without completing a message.
		return nil, nil
	}
	msg := make([]byte, len(z.output))
	copy(msg, z.output)
	z.output = z.output[:0]
	return msg, nil
}

// Read supplies compressed bytes to the decoder. It blocks until input is
// fed, marking the inflater starved so Inflate knows the decoder advanced
// as far as the fed bytes allow.
func (z *zstdStreamInflater) Read(p []byte) (int, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	for len(z.input) == 0 && !z.closed {
		z.starved = true
		z.cond.Broadcast()
		z.cond.Wait()
	}
	if len(z.input) == 0 {
		return 0, io.EOF
	}
	n := copy(p, z.input)
	z.input = z.input[:copy(z.input, z.input[n:])]
	return n, nil
}

// pump drains the decoder for the lifetime of the connection and exits on
// its first error, io.EOF after Close included.
func (z *zstdStreamInflater) pump() {
	defer close(z.done)

	buf := make([]byte, scratchCapacity)
	for {
		n, err := z.decoder.Read(buf)
		z.mu.Lock()
		if n > 0 {
			z.output = append(z.output, buf[:n]...)
		}
		if err != nil {
			z.failed = err
			z.cond.Broadcast()
			z.mu.Unlock()
			return
		}
		z.mu.Unlock()
	}
}

func (z *zstdStreamInflater) Close() error {
	z.mu.Lock()
	if z.closed {
		z.mu.Unlock()
		return nil
	}
	z.closed = true
	z.cond.Broadcast()
	z.mu.Unlock()

	// The pump observes the closed flag through an io.EOF from Read and
	// exits. The decoder must not be released while a Read is in flight.
	<-z.done
	z.decoder.Close()
	return nil
}

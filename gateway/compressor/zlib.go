// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package compressor

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"
)

// payloadMultiplier sizes the inflate buffer from the compressed length to
// avoid repeated growth on typical payloads.
const payloadMultiplier = 3

// payloadInflater implements ModeNone. Every binary frame is a complete,
// independently compressed zlib payload, so there is no partial message
// case and no state carried between frames beyond reusable buffers.
type payloadInflater struct {
	reader io.ReadCloser
	out    bytes.Buffer
}

func newPayloadInflater() *payloadInflater {
	return &payloadInflater{}
}

func (p *payloadInflater) Inflate(frame []byte) ([]byte, error) {
	src := bytes.NewReader(frame)
	if p.reader == nil {
		r, err := zlib.NewReader(src)
		if err != nil {
			return nil, DecompressionError{Mode: ModeNone, Wrapped: err}
		}
		p.reader = r
	} else if err := p.reader.(zlib.Resetter).Reset(src, nil); err != nil {
		return nil, DecompressionError{Mode: ModeNone, Wrapped: err}
	}

	p.out.Reset()
	p.out.Grow(len(frame) * payloadMultiplier)
	if _, err := p.out.ReadFrom(p.reader); err != nil {
		return nil, DecompressionError{Mode: ModeNone, Wrapped: err}
	}

	msg := make([]byte, p.out.Len())
	copy(msg, p.out.Bytes())
	return msg, nil
}

func (p *payloadInflater) Close() error {
	if p.reader == nil {
		return nil
	}
	return p.reader.Close()
}

// zlibSuffix is the sync flush marker that terminates every complete
// message of a shared zlib stream.
var zlibSuffix = []byte{0x00, 0x00, 0xFF, 0xFF}

const (
	// zlibHeaderSize is the size of the stream header sent once, at the
	// start of the shared stream.
	zlibHeaderSize = 2
	// zlibWindowSize is the deflate history carried between messages.
	// Back references in a message may reach this far into the output of
	// earlier messages.
	zlibWindowSize = 32 * 1024
)

// zlibStreamInflater implements ModeZlib. Frames accumulate until the
// buffer ends with the sync flush marker, at which point the accumulated
// deflate blocks are inflated against the history window of everything
// produced so far. A sync flush always lands on a byte aligned block
// boundary, so resuming with the window as dictionary is equivalent to
// running one inflate context over the whole stream.
type zlibStreamInflater struct {
	compressed []byte
	window     []byte
	reader     io.ReadCloser
	scratch    []byte
	out        bytes.Buffer
	headerDone bool
}

func newZlibStreamInflater() *zlibStreamInflater {
	return &zlibStreamInflater{
		compressed: make([]byte, 0, scratchCapacity),
		window:     make([]byte, 0, zlibWindowSize),
		scratch:    make([]byte, scratchCapacity),
	}
}

func (z *zlibStreamInflater) Inflate(frame []byte) ([]byte, error) {
	z.compressed = append(z.compressed, frame...)
	if len(z.compressed) < len(zlibSuffix) || !bytes.HasSuffix(z.compressed, zlibSuffix) {
		return nil, nil
	}

	data := z.compressed
	if !z.headerDone {
		if err := checkZlibHeader(data); err != nil {
			return nil, DecompressionError{Mode: ModeZlib, Wrapped: err}
		}
		data = data[zlibHeaderSize:]
	}

	src := bytes.NewReader(data)
	if z.reader == nil {
		z.reader = flate.NewReaderDict(src, z.window)
	} else if err := z.reader.(flate.Resetter).Reset(src, z.window); err != nil {
		return nil, DecompressionError{Mode: ModeZlib, Wrapped: err}
	}

	z.out.Reset()
	for {
		n, err := z.reader.Read(z.scratch)
		z.out.Write(z.scratch[:n])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// The fed bytes end at the flush boundary, so running out of
			// input here means the message was fully inflated.
			break
		}
		if err != nil {
			return nil, DecompressionError{Mode: ModeZlib, Wrapped: err}
		}
	}

	z.headerDone = true
	z.compressed = z.compressed[:0]

	msg := make([]byte, z.out.Len())
	copy(msg, z.out.Bytes())

	z.window = append(z.window, msg...)
	if over := len(z.window) - zlibWindowSize; over > 0 {
		z.window = z.window[:copy(z.window, z.window[over:])]
	}
	return msg, nil
}

func (z *zlibStreamInflater) Close() error {
	if z.reader == nil {
		return nil
	}
	return z.reader.Close()
}

// zlibHeaderError is the reason a shared stream header was rejected.
type zlibHeaderError string

func (e zlibHeaderError) Error() string {
	return "invalid zlib header: " + string(e)
}

func checkZlibHeader(data []byte) error {
	if len(data) < zlibHeaderSize {
		return zlibHeaderError("truncated")
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0F != 8 {
		return zlibHeaderError("compression method is not deflate")
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return zlibHeaderError("check bits mismatch")
	}
	if flg&0x20 != 0 {
		return zlibHeaderError("preset dictionary not supported")
	}
	return nil
}

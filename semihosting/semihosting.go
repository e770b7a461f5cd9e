// Copyright 2024 The stm32f4xx-hal authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package semihosting is the line-oriented diagnostic channel the startup
// sequence narrates to.
//
// On a real target, semihosting traps into an attached debug probe and is
// slow enough that each line costs milliseconds; off target the transport is
// just a host stream. Either way the channel is best effort: a slow or
// absent receiver delays output but never fails the caller, so transport
// errors are swallowed rather than propagated into the startup flow.
package semihosting

import (
	"bytes"
	"io"
	"os"
)

const (
	// outputLimit caps how much is buffered before a flush is forced even
	// without a newline.
	outputLimit = 1024
	flushChr    = '\n'
)

// Stdout is the default diagnostic channel.
var Stdout = NewWriter(os.Stdout)

// Writer accumulates bytes and hands whole lines to the underlying
// transport, so narration arrives in line-sized transfers rather than one
// trap per byte.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewWriter wraps a transport in a line-buffered diagnostic writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write implements io.Writer. It never returns an error: the channel is
// best effort and a broken transport must not take the startup sequence
// down with it.
func (l *Writer) Write(p []byte) (int, error) {
	for _, c := range p {
		l.buf.WriteByte(c)

		if c == flushChr || l.buf.Len() > outputLimit {
			l.Flush()
		}
	}
	return len(p), nil
}

// Flush pushes any buffered partial line to the transport.
func (l *Writer) Flush() {
	if l.buf.Len() == 0 {
		return
	}
	_, _ = l.w.Write(l.buf.Bytes())
	l.buf.Reset()
}

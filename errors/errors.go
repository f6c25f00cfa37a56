/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package errors provides the typed, coded error value used across the
// reactor's tcp and version packages: a classified failure returns (or
// wraps) one of the taxonomy buckets from spec §7 so callers can switch on
// Code() without string-matching messages. The socket package's thin
// syscall wrappers return bare errors.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Code classifies a failure into one of the taxonomy buckets spec §7 names.
type Code uint8

const (
	// CodeNone is the zero value; never returned by a constructor.
	CodeNone Code = iota
	// CodeConfiguration marks a fatal setup failure (bind/listen/socket/timer
	// creation). The caller is expected to abort, not retry.
	CodeConfiguration
	// CodeTransientIO marks a retry-on-next-readiness failure (EAGAIN,
	// EINTR, ECONNABORTED, EPROTO, EMFILE).
	CodeTransientIO
	// CodeConnect marks a Connector-classified connect(2) failure.
	CodeConnect
	// CodePeer marks a failure discovered from the remote end (RST,
	// unexpected EOF, SO_ERROR).
	CodePeer
	// CodeProgrammer marks a violated invariant (thread-affinity, double
	// start, destruction while handling). Callers should treat this as
	// unrecoverable; Fatal below enforces that.
	CodeProgrammer
)

func (c Code) String() string {
	switch c {
	case CodeConfiguration:
		return "configuration"
	case CodeTransientIO:
		return "transient-io"
	case CodeConnect:
		return "connect"
	case CodePeer:
		return "peer"
	case CodeProgrammer:
		return "programmer"
	default:
		return "none"
	}
}

// Error is the concrete error value returned by reactor operations. It
// carries the failure Code, the caller's file:line, and an optional wrapped
// cause.
type Error struct {
	code   Code
	msg    string
	cause  error
	caller string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v (at %s)", e.code, e.msg, e.cause, e.caller)
	}
	return fmt.Sprintf("[%s] %s (at %s)", e.code, e.msg, e.caller)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Code returns the failure bucket.
func (e *Error) Code() Code { return e.code }

// New builds an Error of the given code with no wrapped cause.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg, caller: caller(2)}
}

// Wrap builds an Error of the given code around an existing error. Wrap
// returns nil if err is nil, so it is safe to use as `return errors.Wrap
// (errors.CodePeer, err, "...")` at a call site that already checked err.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err, caller: caller(2)}
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

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

package tcp

import "golang.org/x/sys/unix"

// isTransientAcceptError reports whether err is one of the accept(2) errnos
// spec.md §4.6 says to log and ignore, leaving the listening socket armed
// for the next readiness.
func isTransientAcceptError(err error) bool {
	switch err {
	case unix.EAGAIN, unix.ECONNABORTED, unix.EINTR, unix.EPROTO, unix.EPERM, unix.EMFILE:
		return true
	default:
		return false
	}
}

// connectOutcome classifies a connect(2) errno per spec.md §4.7.
type connectOutcome int

const (
	connectPending connectOutcome = iota // await write-readiness
	connectRetry                         // close and retry after backoff
	connectAbandon                       // close and give up
)

func classifyConnectError(err error) connectOutcome {
	if err == nil {
		return connectPending
	}
	switch err {
	case unix.EINPROGRESS, unix.EINTR, unix.EISCONN:
		return connectPending
	case unix.EAGAIN, unix.EADDRINUSE, unix.EADDRNOTAVAIL, unix.ECONNREFUSED,
		unix.ENETUNREACH, unix.EHOSTUNREACH, unix.ETIMEDOUT:
		return connectRetry
	default:
		return connectAbandon
	}
}

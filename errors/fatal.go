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

package errors

import "os"

// abortFn is swapped out in tests so a CodeProgrammer violation doesn't
// actually kill the test binary.
var abortFn = func() { os.Exit(1) }

// MustNotHappen is invoked for CodeConfiguration and CodeProgrammer failures
// that spec §7 says must abort the process rather than propagate. It logs
// nothing itself — the caller has already logged through logger.Fatal, whose
// implementation calls this after writing the record.
func MustNotHappen() {
	abortFn()
}

// SetAbort overrides the process-abort hook. Production code never calls
// this; it exists so tests can assert that a programmer-error path reaches
// the abort call without terminating the test process.
func SetAbort(fn func()) (previous func()) {
	previous = abortFn
	abortFn = fn
	return previous
}

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

package cmd

import "github.com/nabbar/netloop/version"

// buildRelease, buildCommit and buildDate are overridden at link time via
// -ldflags "-X ...=...". The zero values below are what `go run` sees.
var (
	buildRelease = "v0.0.0-dev"
	buildCommit  = "none"
	buildDate    = "2020-01-01T00:00:00Z"
)

// anchor gives version.NewVersion a type to reflect on for this binary's
// root import path.
type anchor struct{}

func appVersion() version.Version {
	return version.NewVersion(
		version.License_MIT,
		"netloopd",
		"reactor-pattern TCP demo and operations CLI",
		buildDate,
		buildCommit,
		buildRelease,
		"Nicolas JUHEL",
		"NETLOOPD",
		anchor{},
		1,
	)
}

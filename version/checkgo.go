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

package version

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/nabbar/netloop/errors"
)

// ErrGoVersionConstraint is the Code carried by the error CheckGo returns
// when the running toolchain does not satisfy the given constraint.
var ErrGoVersionConstraint = errors.CodeConfiguration

// CheckGo compares the running Go toolchain's version against required
// using operator: one of ">=", "<=", ">", "<", "==", or "~>" (pessimistic:
// same major, minor >= required's minor). required is "major.minor" or
// "major.minor.patch"; a missing patch component compares as 0.
func (v *version) CheckGo(required, operator string) error {
	have := parseGoVersion(runtime.Version())
	want := parseSemver(required)

	cmp := compareSemver(have, want)

	var ok bool
	switch operator {
	case ">=":
		ok = cmp >= 0
	case "<=":
		ok = cmp <= 0
	case ">":
		ok = cmp > 0
	case "<":
		ok = cmp < 0
	case "==":
		ok = cmp == 0
	case "~>":
		ok = have[0] == want[0] && have[1] >= want[1]
	default:
		ok = cmp >= 0
	}

	if !ok {
		return errors.New(errors.CodeConfiguration, fmt.Sprintf(
			"version: non-compatible version of Go: have %s, want %s %s", runtime.Version(), operator, required))
	}
	return nil
}

// parseGoVersion strips the "go" prefix and any pre-release suffix from
// runtime.Version()'s "go1.25.0" shape.
func parseGoVersion(s string) [3]int {
	s = strings.TrimPrefix(s, "go")
	if idx := strings.IndexAny(s, "-+ "); idx >= 0 {
		s = s[:idx]
	}
	return parseSemver(s)
}

func parseSemver(s string) [3]int {
	var out [3]int
	parts := strings.SplitN(s, ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}

func compareSemver(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

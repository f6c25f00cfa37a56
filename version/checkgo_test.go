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

package version_test

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/nabbar/netloop/version"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// currentGoMajorMinor extracts "1.NN" from runtime.Version()'s "go1.NN.P"
// shape, so the constraint checks below are relative to whatever toolchain
// actually runs the suite rather than a hardcoded version.
func currentGoMajorMinor() (int, int) {
	v := strings.TrimPrefix(runtime.Version(), "go")
	if idx := strings.IndexAny(v, "-+ "); idx >= 0 {
		v = v[:idx]
	}
	parts := strings.SplitN(v, ".", 3)
	major, _ := strconv.Atoi(parts[0])
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

var _ = Describe("CheckGo", func() {
	var v version.Version

	BeforeEach(func() {
		v = version.NewVersion(version.License_MIT, "TestApp", "Test Application", testTime,
			"abc123", "v1.0.0", "Test Author", "test", testStruct{}, 0)
	})

	It("succeeds against the running toolchain's own version with >=", func() {
		major, minor := currentGoMajorMinor()
		Expect(v.CheckGo(fmt.Sprintf("%d.%d", major, minor), ">=")).To(Succeed())
	})

	It("succeeds against a clearly older version with >=", func() {
		Expect(v.CheckGo("1.10", ">=")).To(Succeed())
	})

	It("succeeds against a clearly newer version with <", func() {
		Expect(v.CheckGo("99.99", "<")).To(Succeed())
	})

	It("honors the ~> pessimistic constraint on the same major version", func() {
		major, minor := currentGoMajorMinor()
		Expect(v.CheckGo(fmt.Sprintf("%d.%d", major, minor), "~>")).To(Succeed())
	})

	It("fails when the required version is unreachably high", func() {
		err := v.CheckGo("99.99", ">=")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("non-compatible version of Go"))
	})

	It("fails when the required version is below the floor and operator is <", func() {
		err := v.CheckGo("1.10", "<")
		Expect(err).To(HaveOccurred())
	})
})

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

package clicolor_test

import (
	"bytes"

	"github.com/nabbar/netloop/internal/clicolor"
	"github.com/nabbar/netloop/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ForLevel", func() {
	It("maps error and fatal to RoleError", func() {
		Expect(clicolor.ForLevel(logger.ErrorLevel)).To(Equal(clicolor.RoleError))
		Expect(clicolor.ForLevel(logger.FatalLevel)).To(Equal(clicolor.RoleError))
	})

	It("maps warn to RoleWarn", func() {
		Expect(clicolor.ForLevel(logger.WarnLevel)).To(Equal(clicolor.RoleWarn))
	})

	It("maps debug and trace to RoleInfo", func() {
		Expect(clicolor.ForLevel(logger.DebugLevel)).To(Equal(clicolor.RoleInfo))
		Expect(clicolor.ForLevel(logger.TraceLevel)).To(Equal(clicolor.RoleInfo))
	})

	It("maps info to RoleOK", func() {
		Expect(clicolor.ForLevel(logger.InfoLevel)).To(Equal(clicolor.RoleOK))
	})
})

var _ = Describe("Role", func() {
	It("writes formatted text to the destination writer", func() {
		var buf bytes.Buffer
		clicolor.RoleHeader.Fprintf(&buf, "netloopd %s", "v1.0.0")
		Expect(buf.String()).To(ContainSubstring("netloopd v1.0.0"))
	})

	It("produces a formatted string via Sprintf without writing anywhere", func() {
		s := clicolor.RoleOK.Sprintf("%d connections", 3)
		Expect(s).To(ContainSubstring("3 connections"))
	})

	It("never panics for an out-of-range role", func() {
		var r clicolor.Role = 99
		Expect(func() {
			_ = r.Sprintf("x")
		}).ToNot(Panic())
	})
})

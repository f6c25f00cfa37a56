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

package errors_test

import (
	goerrors "errors"

	liberr "github.com/nabbar/netloop/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("errors", func() {
	Context("New", func() {
		It("carries the code and message", func() {
			e := liberr.New(liberr.CodeTransientIO, "eagain")
			Expect(e.Code()).To(Equal(liberr.CodeTransientIO))
			Expect(e.Error()).To(ContainSubstring("eagain"))
			Expect(e.Error()).To(ContainSubstring("transient-io"))
		})
	})

	Context("Wrap", func() {
		It("returns nil for a nil cause", func() {
			Expect(liberr.Wrap(liberr.CodePeer, nil, "x")).To(BeNil())
		})

		It("unwraps to the original cause", func() {
			cause := goerrors.New("rst")
			e := liberr.Wrap(liberr.CodePeer, cause, "peer reset")
			Expect(goerrors.Unwrap(e)).To(Equal(cause))
			Expect(goerrors.Is(e, cause)).To(BeTrue())
		})
	})

	Context("Is", func() {
		It("matches the wrapped code", func() {
			e := liberr.New(liberr.CodeConnect, "refused")
			Expect(liberr.Is(e, liberr.CodeConnect)).To(BeTrue())
			Expect(liberr.Is(e, liberr.CodePeer)).To(BeFalse())
		})

		It("is false for a plain error", func() {
			Expect(liberr.Is(goerrors.New("plain"), liberr.CodePeer)).To(BeFalse())
		})
	})

	Context("MustNotHappen", func() {
		It("invokes the installed abort hook", func() {
			called := false
			prev := liberr.SetAbort(func() { called = true })
			defer liberr.SetAbort(prev)

			liberr.MustNotHappen()
			Expect(called).To(BeTrue())
		})
	})
})

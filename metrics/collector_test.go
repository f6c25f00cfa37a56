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

package metrics_test

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/netloop/metrics"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Collector", func() {
	It("registers every collector and counts increments", func() {
		reg := prometheus.NewRegistry()
		c := metrics.New(reg, "netloop_test")

		c.ConnectionAccepted()
		c.ConnectionAccepted()
		c.ConnectionClosed()
		c.BytesRead(100)
		c.BytesWritten(42)
		c.TimerFired()
		c.HighWaterMarkHit()
		c.SetPendingQueueDepth(7)

		mfs, err := reg.Gather()
		Expect(err).NotTo(HaveOccurred())

		byName := map[string]float64{}
		for _, mf := range mfs {
			for _, m := range mf.GetMetric() {
				var v float64
				if m.GetCounter() != nil {
					v = m.GetCounter().GetValue()
				} else if m.GetGauge() != nil {
					v = m.GetGauge().GetValue()
				}
				byName[mf.GetName()] = v
			}
		}

		Expect(byName["netloop_test_tcp_connections_accepted_total"]).To(Equal(float64(2)))
		Expect(byName["netloop_test_tcp_connections_closed_total"]).To(Equal(float64(1)))
		Expect(byName["netloop_test_tcp_bytes_read_total"]).To(Equal(float64(100)))
		Expect(byName["netloop_test_tcp_bytes_written_total"]).To(Equal(float64(42)))
		Expect(byName["netloop_test_timer_fires_total"]).To(Equal(float64(1)))
		Expect(byName["netloop_test_tcp_high_water_mark_hits_total"]).To(Equal(float64(1)))
		Expect(byName["netloop_test_loop_pending_queue_depth"]).To(Equal(float64(7)))
	})

	It("is a safe no-op on a nil Collector", func() {
		var c *metrics.Collector
		Expect(func() {
			c.ConnectionAccepted()
			c.ConnectionClosed()
			c.BytesRead(10)
			c.BytesWritten(10)
			c.TimerFired()
			c.HighWaterMarkHit()
			c.SetPendingQueueDepth(3)
		}).NotTo(Panic())
	})

	It("ignores non-positive byte counts", func() {
		reg := prometheus.NewRegistry()
		c := metrics.New(reg, "netloop_test2")
		c.BytesRead(0)
		c.BytesRead(-5)

		mfs, err := reg.Gather()
		Expect(err).NotTo(HaveOccurred())
		for _, mf := range mfs {
			if mf.GetName() == "netloop_test2_tcp_bytes_read_total" {
				Expect(mf.GetMetric()[0].GetCounter().GetValue()).To(Equal(float64(0)))
			}
		}
	})
})

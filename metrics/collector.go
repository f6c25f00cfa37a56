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

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds every counter/gauge the reactor exposes. A nil *Collector
// is valid and every method on it is a no-op, so components can accept one
// optionally without a separate enabled/disabled flag.
type Collector struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	bytesRead           prometheus.Counter
	bytesWritten        prometheus.Counter
	timerFires          prometheus.Counter
	highWaterMarkHits   prometheus.Counter
	pendingQueueDepth   prometheus.Gauge
}

// New builds a Collector and registers its collectors on reg. namespace
// prefixes every metric name (e.g. "netloop"), matching the
// client_golang convention of a per-application namespace.
func New(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "connections_accepted_total",
			Help:      "TCP connections accepted or dialed successfully.",
		}),
		connectionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "connections_closed_total",
			Help:      "TCP connections torn down, for any reason.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "bytes_read_total",
			Help:      "Bytes read from connected sockets.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "bytes_written_total",
			Help:      "Bytes written to connected sockets.",
		}),
		timerFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "fires_total",
			Help:      "Timer callbacks executed by a loop's timer Service.",
		}),
		highWaterMarkHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "high_water_mark_hits_total",
			Help:      "Upward crossings of a connection's output high-water mark.",
		}),
		pendingQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "pending_queue_depth",
			Help:      "Callbacks queued on a loop but not yet run, last sampled.",
		}),
	}

	reg.MustRegister(
		c.connectionsAccepted,
		c.connectionsClosed,
		c.bytesRead,
		c.bytesWritten,
		c.timerFires,
		c.highWaterMarkHits,
		c.pendingQueueDepth,
	)

	return c
}

func (c *Collector) ConnectionAccepted() {
	if c == nil {
		return
	}
	c.connectionsAccepted.Inc()
}

func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsClosed.Inc()
}

func (c *Collector) BytesRead(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.bytesRead.Add(float64(n))
}

func (c *Collector) BytesWritten(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.bytesWritten.Add(float64(n))
}

func (c *Collector) TimerFired() {
	if c == nil {
		return
	}
	c.timerFires.Inc()
}

func (c *Collector) HighWaterMarkHit() {
	if c == nil {
		return
	}
	c.highWaterMarkHits.Inc()
}

// SetPendingQueueDepth records a point-in-time sample of a loop's pending
// queue length, e.g. polled via loop.EventLoop.PendingQueueLen.
func (c *Collector) SetPendingQueueDepth(n int) {
	if c == nil {
		return
	}
	c.pendingQueueDepth.Set(float64(n))
}

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

package loop

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nabbar/netloop/logger"
)

// ThreadInitCallback runs on a pool loop's own thread immediately after
// construction, before it starts accepting work — the hook a TcpServer uses
// to install per-connection bookkeeping on each I/O loop.
type ThreadInitCallback func(*EventLoop)

// ThreadPool owns a fixed set of I/O loops, each pinned to its own OS
// thread, and hands them out round-robin. With zero threads configured,
// GetNextLoop returns the base loop, so a server with no pool behaves like
// one running entirely on its accept loop.
type ThreadPool struct {
	base *EventLoop
	name string
	log  logger.Logger

	numThreads int
	started    bool

	mu    sync.Mutex
	loops []*EventLoop
	next  int

	group *errgroup.Group
}

// NewThreadPool returns a pool anchored on base — the loop accepting new
// connections, which also owns the pool's lifecycle.
func NewThreadPool(base *EventLoop, name string, log logger.Logger) *ThreadPool {
	if log == nil {
		log = logger.Default()
	}
	return &ThreadPool{base: base, name: name, log: log}
}

// SetThreadNum configures how many I/O loops Start spins up. Must be called
// before Start.
func (p *ThreadPool) SetThreadNum(n int) { p.numThreads = n }

// Started reports whether Start has run.
func (p *ThreadPool) Started() bool { return p.started }

// Start spawns numThreads I/O loops, each on its own locked OS thread,
// running cb on each before it begins dispatching events. Blocks until
// every loop has announced readiness. With zero threads configured, cb runs
// once on the base loop instead.
func (p *ThreadPool) Start(cb ThreadInitCallback) error {
	p.base.AssertInLoopThread()
	if p.started {
		panic("loop: ThreadPool already started")
	}
	p.started = true

	if p.numThreads == 0 {
		if cb != nil {
			cb(p.base)
		}
		return nil
	}

	p.group = &errgroup.Group{}
	ready := make(chan *EventLoop, p.numThreads)

	for i := 0; i < p.numThreads; i++ {
		p.group.Go(func() error {
			l := New(p.log)
			if cb != nil {
				cb(l)
			}
			ready <- l
			l.Loop()
			return l.Close()
		})
	}

	for i := 0; i < p.numThreads; i++ {
		l := <-ready
		p.mu.Lock()
		p.loops = append(p.loops, l)
		p.mu.Unlock()
	}
	return nil
}

// GetNextLoop returns the next loop in round-robin order, or the base loop
// if the pool has no dedicated threads.
func (p *ThreadPool) GetNextLoop() *EventLoop {
	p.base.AssertInLoopThread()

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.loops) == 0 {
		return p.base
	}
	l := p.loops[p.next]
	p.next = (p.next + 1) % len(p.loops)
	return l
}

// Stop asks every pool loop to quit and waits for their goroutines to
// return.
func (p *ThreadPool) Stop() error {
	p.mu.Lock()
	loops := p.loops
	p.mu.Unlock()

	for _, l := range loops {
		l.Quit()
	}
	if p.group == nil {
		return nil
	}
	return p.group.Wait()
}

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

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nabbar/netloop/buffer"
	"github.com/nabbar/netloop/loop"
	skcfg "github.com/nabbar/netloop/socket/config"
	"github.com/nabbar/netloop/tcp"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
	"github.com/nabbar/netloop/timer"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run an echo server with a live terminal dashboard of its reactor state",
	RunE:  runMonitor,
}

func init() {
	f := monitorCmd.Flags()
	f.String("listen", ":9000", "listen address (host:port)")
	f.String("name", "netloopd-monitor", "server name")
	f.Duration("refresh", 500*time.Millisecond, "dashboard refresh interval")
}

// tickMsg asks dashboardModel to refresh its snapshot of the reactor.
type tickMsg struct{}

// dashboardModel is a tea.Model polling a running tcp.Server and its base
// EventLoop at a fixed interval; it owns none of the reactor's lifetime,
// it only reads PendingQueueLen/ConnectionCount from outside the loop
// thread, exactly as those accessors are documented to allow.
type dashboardModel struct {
	srv      *tcp.Server
	base     *loop.EventLoop
	addr     string
	refresh  time.Duration
	conns    int
	pending  int
	quitting bool
}

func (m dashboardModel) Init() tea.Cmd {
	return tickEvery(m.refresh)
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		m.conns = m.srv.ConnectionCount()
		m.pending = m.base.PendingQueueLen()
		return m, tickEvery(m.refresh)
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf(
		"netloopd monitor — listening on %s\n\nconnections: %d\npending callbacks: %d\n\n(press q to quit)\n",
		m.addr, m.conns, m.pending)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	listen, _ := f.GetString("listen")
	name, _ := f.GetString("name")
	refresh, _ := f.GetDuration("refresh")

	cfg := tcpcfg.Server{
		Listen: skcfg.Listen{
			Network:   skcfg.NetworkTCP,
			Address:   listen,
			NoDelay:   true,
			KeepAlive: true,
		},
		Name: name,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loopReady := make(chan *loop.EventLoop, 1)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		lp := loop.New(log)
		loopReady <- lp
		lp.Loop()
		_ = lp.Close()
	}()
	base := <-loopReady
	defer func() {
		base.Quit()
		<-loopDone
	}()

	srv := tcp.NewServer(base, log, cfg)
	srv.SetMessageCallback(func(conn *tcp.Connection, in *buffer.Buffer, _ timer.Timestamp) {
		conn.Send(in.Peek())
		in.RetrieveAll()
	})

	type startResult struct {
		addr string
		err  error
	}
	started := make(chan startResult, 1)
	base.RunInLoop(func() {
		if err := srv.Start(); err != nil {
			started <- startResult{err: err}
			return
		}
		addr, _ := srv.Addr()
		started <- startResult{addr: addr.String()}
	})

	res := <-started
	if res.err != nil {
		return res.err
	}
	defer func() {
		done := make(chan struct{})
		base.RunInLoop(func() {
			_ = srv.Stop()
			close(done)
		})
		<-done
	}()

	m := dashboardModel{
		srv:     srv,
		base:    base,
		addr:    res.addr,
		refresh: refresh,
	}
	_, err := tea.NewProgram(m).Run()
	return err
}

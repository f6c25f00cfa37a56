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
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nabbar/netloop/buffer"
	"github.com/nabbar/netloop/internal/clicolor"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/metrics"
	"github.com/nabbar/netloop/socket"
	skcfg "github.com/nabbar/netloop/socket/config"
	"github.com/nabbar/netloop/tcp"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
	"github.com/nabbar/netloop/timer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a TCP echo server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("listen", ":9000", "listen address (host:port)")
	f.String("name", "netloopd-serve", "server name, used in log lines and metric labels")
	f.Int("io-threads", 0, "number of I/O loops in the pool (0 runs everything on the accept loop)")
	f.Int("backlog", 1024, "listen(2) backlog")
	f.Bool("reuse-port", false, "SO_REUSEPORT on the listening socket")
	f.Int("high-water-mark", 0, "per-connection output buffer high water mark in bytes (0 uses the 64MiB default)")
	f.Bool("metrics", true, "collect prometheus metrics in-process")
}

func runServe(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	listen, _ := f.GetString("listen")
	name, _ := f.GetString("name")
	ioThreads, _ := f.GetInt("io-threads")
	backlog, _ := f.GetInt("backlog")
	reusePort, _ := f.GetBool("reuse-port")
	hwm, _ := f.GetInt("high-water-mark")
	withMetrics, _ := f.GetBool("metrics")

	cfg := tcpcfg.Server{
		Listen: skcfg.Listen{
			Network:     skcfg.NetworkTCP,
			Address:     listen,
			Backlog:     backlog,
			ReusePort:   reusePort,
			NoDelay:     true,
			KeepAlive:   true,
			NumIOThread: ioThreads,
		},
		Name:          name,
		HighWaterMark: hwm,
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

	var mcol *metrics.Collector
	if withMetrics {
		mcol = metrics.New(prometheus.DefaultRegisterer, "netloopd")
	}

	srv := tcp.NewServer(base, log, cfg)
	srv.SetMetrics(mcol)
	srv.SetConnectionCallback(func(conn *tcp.Connection) {
		log.Info("%s: connection %s -> %s", cfg.Name, conn.Name(), conn.State())
	})
	srv.SetMessageCallback(func(conn *tcp.Connection, in *buffer.Buffer, _ timer.Timestamp) {
		conn.Send(in.Peek())
		in.RetrieveAll()
	})

	type startResult struct {
		addr socket.Address
		err  error
	}
	started := make(chan startResult, 1)
	base.RunInLoop(func() {
		err := srv.Start()
		if err != nil {
			started <- startResult{err: err}
			return
		}
		addr, _ := srv.Addr()
		started <- startResult{addr: addr}
	})

	res := <-started
	if res.err != nil {
		return res.err
	}
	clicolor.RoleOK.Fprintf(os.Stdout, "listening on %s\n", res.addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	clicolor.RoleInfo.Fprintf(os.Stdout, "shutting down...\n")
	done := make(chan struct{})
	base.RunInLoop(func() {
		_ = srv.Stop()
		close(done)
	})
	<-done
	return nil
}

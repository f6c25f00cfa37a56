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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nabbar/netloop/buffer"
	"github.com/nabbar/netloop/internal/clicolor"
	"github.com/nabbar/netloop/loop"
	"github.com/nabbar/netloop/metrics"
	skcfg "github.com/nabbar/netloop/socket/config"
	"github.com/nabbar/netloop/tcp"
	tcpcfg "github.com/nabbar/netloop/tcp/config"
	"github.com/nabbar/netloop/timer"
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Connect a TCP client with auto-reconnect and send periodic pings",
	RunE:  runDial,
}

func init() {
	f := dialCmd.Flags()
	f.String("address", "127.0.0.1:9000", "address to dial (host:port)")
	f.String("name", "netloopd-dial", "client name, used in log lines and metric labels")
	f.Bool("retry", true, "auto-reconnect on disconnect")
	f.Duration("initial-delay", 500*time.Millisecond, "initial reconnect backoff")
	f.Duration("max-delay", 30*time.Second, "reconnect backoff ceiling")
	f.Duration("ping-interval", 2*time.Second, "interval between pings sent on the active connection (0 disables)")
	f.Bool("metrics", true, "collect prometheus metrics in-process")
}

func runDial(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	address, _ := f.GetString("address")
	name, _ := f.GetString("name")
	retry, _ := f.GetBool("retry")
	initialDelay, _ := f.GetDuration("initial-delay")
	maxDelay, _ := f.GetDuration("max-delay")
	pingInterval, _ := f.GetDuration("ping-interval")
	withMetrics, _ := f.GetBool("metrics")

	cfg := tcpcfg.Client{
		Dial: skcfg.Dial{
			Network:      skcfg.NetworkTCP,
			Address:      address,
			NoDelay:      true,
			KeepAlive:    true,
			Retry:        retry,
			InitialDelay: initialDelay,
			MaxDelay:     maxDelay,
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
	l := <-loopReady
	defer func() {
		l.Quit()
		<-loopDone
	}()

	var mcol *metrics.Collector
	if withMetrics {
		mcol = metrics.New(prometheus.DefaultRegisterer, "netloopd")
	}

	cli, err := tcp.NewClient(l, log, cfg)
	if err != nil {
		return err
	}
	cli.SetMetrics(mcol)
	cli.SetConnectionCallback(func(conn *tcp.Connection) {
		log.Info("%s: connection %s -> %s", cfg.Name, conn.Name(), conn.State())
	})
	cli.SetMessageCallback(func(conn *tcp.Connection, in *buffer.Buffer, _ timer.Timestamp) {
		clicolor.RoleInfo.Fprintf(os.Stdout, "recv: %s\n", in.RetrieveAllAsString())
	})

	cli.Connect()
	defer cli.Stop()

	var pingStop chan struct{}
	if pingInterval > 0 {
		pingStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if conn := cli.Connection(); conn != nil {
						conn.Send([]byte("ping\n"))
					}
				case <-pingStop:
					return
				}
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if pingStop != nil {
		close(pingStop)
	}
	clicolor.RoleInfo.Fprintf(os.Stdout, "disconnecting...\n")
	return nil
}

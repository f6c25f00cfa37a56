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

// Package config holds the viper-friendly structs a TcpServer/TcpClient are
// built from, layering server/client-specific knobs on top of
// socket/config's Listen/Dial.
package config

import (
	"fmt"

	skcfg "github.com/nabbar/netloop/socket/config"
)

// Server configures a TcpServer.
type Server struct {
	Listen        skcfg.Listen `mapstructure:"listen" json:"listen" yaml:"listen" toml:"listen"`
	Name          string       `mapstructure:"name" json:"name" yaml:"name" toml:"name"`
	HighWaterMark int          `mapstructure:"high_water_mark" json:"high_water_mark" yaml:"high_water_mark" toml:"high_water_mark"`
}

// Validate checks the Server config is well-formed.
func (s Server) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("config: empty server name")
	}
	if s.HighWaterMark < 0 {
		return fmt.Errorf("config: negative high_water_mark %d", s.HighWaterMark)
	}
	return s.Listen.Validate()
}

// HighWaterMarkOrDefault returns HighWaterMark, or Connection's 64MiB
// default when unset.
func (s Server) HighWaterMarkOrDefault() int {
	if s.HighWaterMark <= 0 {
		return 64 * 1024 * 1024
	}
	return s.HighWaterMark
}

// Client configures a TcpClient.
type Client struct {
	Dial          skcfg.Dial `mapstructure:"dial" json:"dial" yaml:"dial" toml:"dial"`
	Name          string     `mapstructure:"name" json:"name" yaml:"name" toml:"name"`
	HighWaterMark int        `mapstructure:"high_water_mark" json:"high_water_mark" yaml:"high_water_mark" toml:"high_water_mark"`
}

// Validate checks the Client config is well-formed.
func (c Client) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: empty client name")
	}
	if c.HighWaterMark < 0 {
		return fmt.Errorf("config: negative high_water_mark %d", c.HighWaterMark)
	}
	return c.Dial.Validate()
}

// HighWaterMarkOrDefault returns HighWaterMark, or Connection's 64MiB
// default when unset.
func (c Client) HighWaterMarkOrDefault() int {
	if c.HighWaterMark <= 0 {
		return 64 * 1024 * 1024
	}
	return c.HighWaterMark
}

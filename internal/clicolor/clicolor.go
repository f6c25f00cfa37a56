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

// Package clicolor colorizes netloopd's human-facing CLI output by
// severity/role, the way the teacher colorizes interactive console output.
package clicolor

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nabbar/netloop/logger"
)

// Role identifies what kind of line is being printed, so each can carry its
// own color independently of log level.
type Role uint8

const (
	RoleInfo Role = iota
	RoleOK
	RoleWarn
	RoleError
	RoleHeader
)

var palette = map[Role]*color.Color{
	RoleInfo:   color.New(color.FgCyan),
	RoleOK:     color.New(color.FgGreen),
	RoleWarn:   color.New(color.FgYellow),
	RoleError:  color.New(color.FgRed, color.Bold),
	RoleHeader: color.New(color.FgMagenta, color.Bold),
}

// ForLevel maps a logger.Level to the Role used to colorize its lines on
// the CLI's human-readable output (as opposed to the structured logrus
// writer netloopd always points Logger at in addition).
func ForLevel(lvl logger.Level) Role {
	switch lvl {
	case logger.ErrorLevel, logger.FatalLevel:
		return RoleError
	case logger.WarnLevel:
		return RoleWarn
	case logger.DebugLevel, logger.TraceLevel:
		return RoleInfo
	default:
		return RoleOK
	}
}

// Fprintf writes a colorized line to w when w is a terminal-capable writer;
// color.Color itself detects non-tty destinations and degrades to plain
// text, so callers never need to branch on NO_COLOR/pipe redirection.
func (r Role) Fprintf(w io.Writer, format string, args ...interface{}) {
	c, ok := palette[r]
	if !ok || c == nil {
		fmt.Fprintf(w, format, args...)
		return
	}
	_, _ = c.Fprintf(w, format, args...)
}

// Sprintf returns the colorized string without writing it anywhere.
func (r Role) Sprintf(format string, args ...interface{}) string {
	c, ok := palette[r]
	if !ok || c == nil {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}

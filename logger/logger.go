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

// Package logger is the logging collaborator spec §6 requires: a sink
// accepting TRACE|DEBUG|INFO|WARN|ERROR|FATAL severities, where FATAL is
// followed by process abort. It is a thin facade over logrus so the rest of
// the reactor never imports logrus directly.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	liberr "github.com/nabbar/netloop/errors"
)

// Logger is the facade every reactor package logs through.
type Logger interface {
	Trace(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// Fatal logs at FatalLevel then calls errors.MustNotHappen — it never
	// returns. Reserved for spec §7's "Configuration errors" and
	// "Programmer errors" buckets.
	Fatal(msg string, args ...interface{})

	WithField(key string, val interface{}) Logger
	WithFields(f Fields) Logger

	SetLevel(lvl Level)
	GetLevel() Level
}

type logger struct {
	entry *logrus.Entry
}

// New returns a Logger writing formatted records to w at the given minimum
// level. Pass os.Stderr for CLI usage, matching the teacher's convention of
// logging operational output to standard error and reserving standard
// output for program results.
func New(w io.Writer, lvl Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl.toLogrus())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logger{entry: logrus.NewEntry(l)}
}

// Default returns a Logger writing to os.Stderr at InfoLevel.
func Default() Logger {
	return New(os.Stderr, InfoLevel)
}

func (g *logger) Trace(msg string, args ...interface{}) { g.entry.Tracef(msg, args...) }
func (g *logger) Debug(msg string, args ...interface{}) { g.entry.Debugf(msg, args...) }
func (g *logger) Info(msg string, args ...interface{})  { g.entry.Infof(msg, args...) }
func (g *logger) Warn(msg string, args ...interface{})  { g.entry.Warnf(msg, args...) }
func (g *logger) Error(msg string, args ...interface{}) { g.entry.Errorf(msg, args...) }

func (g *logger) Fatal(msg string, args ...interface{}) {
	g.entry.Logf(logrus.FatalLevel, msg, args...)
	liberr.MustNotHappen()
}

func (g *logger) WithField(key string, val interface{}) Logger {
	return &logger{entry: g.entry.WithField(key, val)}
}

func (g *logger) WithFields(f Fields) Logger {
	return &logger{entry: g.entry.WithFields(logrus.Fields(f))}
}

func (g *logger) SetLevel(lvl Level) {
	g.entry.Logger.SetLevel(lvl.toLogrus())
}

func (g *logger) GetLevel() Level {
	return fromLogrus(g.entry.Logger.GetLevel())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package notify is the non-fatal notification path of the client: short
// transient messages ("toasts") reporting the outcome of an operation or a
// server-pushed change. Notifying never fails and never blocks on the
// consumer.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/MKhiriev/amestris-client/internal/logger"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notifier receives transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to a zerolog logger. Errors are logged at
// warn level; they are reports, not failures of the client.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier returns a [LogNotifier] writing to log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.GetChildLogger("notify")}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info().Str("kind", string(KindSuccess)).Msg(msg)
}

func (n *LogNotifier) Info(msg string) {
	n.logger.Info().Str("kind", string(KindInfo)).Msg(msg)
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Warn().Str("kind", string(KindError)).Msg(msg)
}

// WriterNotifier prints one line per notification, prefixed with a marker
// of its kind. It is safe for concurrent use.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier returns a [WriterNotifier] printing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

var markers = map[Kind]string{
	KindSuccess: "✔",
	KindInfo:    "ℹ",
	KindError:   "✖",
}

func (n *WriterNotifier) write(kind Kind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, _ = fmt.Fprintf(n.w, "%s %s\n", markers[kind], msg)
}

func (n *WriterNotifier) Success(msg string) { n.write(KindSuccess, msg) }
func (n *WriterNotifier) Info(msg string)    { n.write(KindInfo, msg) }
func (n *WriterNotifier) Error(msg string)   { n.write(KindError, msg) }

// Multi fans every notification out to all of notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Info(string)    {}
func (Nop) Error(string)   {}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/amestris-client/internal/app"
	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/notify"
	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

// Handlers are the callbacks of one connection. Nil handlers are skipped.
// Every callback runs on the connection's reader goroutine, one at a time.
type Handlers struct {
	// OnOpen fires once per successful connection, including reconnections.
	OnOpen func()
	// OnError fires for every transport error. The connection keeps
	// retrying unless errors.Is(err, ErrStreamRejected).
	OnError func(err error)
	// OnClose fires once, from the teardown function.
	OnClose func()

	// OnEvent receives every decoded event, after the typed handlers below.
	OnEvent func(ev Event) error
	// OnTransmutationUpsert receives the payload of created and updated
	// events with a positive id. It must be idempotent.
	OnTransmutationUpsert func(payload json.RawMessage) error
	// OnTransmutationDelete receives the id of deleted events with a
	// positive id.
	OnTransmutationDelete func(id int64) error
	// OnHandlerError receives errors returned by, or panics recovered
	// from, every handler above.
	OnHandlerError func(err error)
}

// Bridge opens server-push connections and dispatches their events.
type Bridge struct {
	http       *utils.HTTPClient
	tokens     TokenSource
	path       string
	retryDelay time.Duration
	notifier   notify.Notifier
	observer   Observer
	logger     *logger.Logger
}

// BridgeOption customises a [Bridge].
type BridgeOption func(*Bridge)

// WithObserver reports stream activity to o.
func WithObserver(o Observer) BridgeOption {
	return func(b *Bridge) {
		if o != nil {
			b.observer = o
		}
	}
}

// NewBridge builds a bridge that connects through http, which must be rooted
// at the backend base URL. Handler failures are reported through notifier.
func NewBridge(http *utils.HTTPClient, tokens TokenSource, cfg config.ClientRealtime, notifier notify.Notifier, log *logger.Logger, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		http:       http,
		tokens:     tokens,
		path:       cfg.Path,
		retryDelay: cfg.RetryDelay,
		notifier:   notifier,
		observer:   nopObserver{},
		logger:     log.GetChildLogger("realtime"),
	}
	if b.path == "" {
		b.path = config.DefaultRealtimePath
	}
	if b.retryDelay <= 0 {
		b.retryDelay = config.DefaultRetryDelay
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect opens the event stream with the current access token and starts
// dispatching to h. It fails only when no access token is available.
//
// The returned teardown stops the stream, waits for the reader goroutine to
// exit and then fires OnClose. It is safe to call more than once; calls after
// the first return immediately. It must not be called from inside a handler.
func (b *Bridge) Connect(ctx context.Context, h Handlers) (func(), error) {
	token, err := b.tokens.EnsureFresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("realtime: access token: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	conn := &connection{
		bridge:   b,
		handlers: h,
		done:     make(chan struct{}),
	}
	source := &eventSource{
		http:   b.http,
		url:    b.path,
		token:  token,
		retry:  b.retryDelay,
		logger: b.logger,
	}

	go func() {
		defer close(conn.done)
		source.run(ctx, conn)
		if conn.open {
			b.observer.ObserveConnection(false)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			conn.closed.Store(true)
			cancel()
			<-conn.done
			if h.OnClose != nil {
				b.call("close", h, h.OnClose)
			}
			b.logger.Debug().Msg("realtime connection closed")
		})
	}, nil
}

// connection is the sink of one eventSource.
type connection struct {
	bridge   *Bridge
	handlers Handlers
	done     chan struct{}
	closed   atomic.Bool
	open     bool
}

func (c *connection) opened() {
	if !c.open {
		c.open = true
		c.bridge.observer.ObserveConnection(true)
	}
	c.bridge.logger.Debug().Msg("realtime connection opened")
	if c.handlers.OnOpen != nil && !c.closed.Load() {
		c.bridge.call("open", c.handlers, c.handlers.OnOpen)
	}
}

func (c *connection) failed(err error) {
	if c.open {
		c.open = false
		c.bridge.observer.ObserveConnection(false)
	}
	c.bridge.logger.Warn().Err(err).Msg("realtime transport error")
	if c.handlers.OnError != nil && !c.closed.Load() {
		c.bridge.call("error", c.handlers, func() { c.handlers.OnError(err) })
	}
}

func (c *connection) received(raw models.RawEvent) {
	if c.closed.Load() {
		return
	}
	c.bridge.dispatch(Decode(raw), c.handlers)
}

// dispatch routes ev to h. Handler errors and panics are reported, never
// returned.
func (b *Bridge) dispatch(ev Event, h Handlers) {
	b.observer.ObserveEvent(ev.Type())

	switch e := ev.(type) {
	case Hello:
		b.logger.Debug().Int64("user_id", e.UserID).Str("user_role", string(e.Role)).Msg("realtime hello")
	case Ping:
		b.logger.Debug().Int64("ts", e.TS).Msg("realtime ping")
	case TransmutationCreated:
		b.upsert(e.Type(), e.ID, e.Payload, h)
	case TransmutationUpdated:
		b.upsert(e.Type(), e.ID, e.Payload, h)
	case TransmutationDeleted:
		if e.ID > 0 && h.OnTransmutationDelete != nil {
			b.guard(e.Type(), h, func() error { return h.OnTransmutationDelete(e.ID) })
		}
	case Unknown:
		if e.Err != nil {
			b.logger.Warn().Err(e.Err).Str("event", e.Name).Msg("undecodable realtime event")
		} else {
			b.logger.Debug().Str("event", e.Name).Msg("unrecognised realtime event")
		}
	}

	if h.OnEvent != nil {
		b.guard(ev.Type(), h, func() error { return h.OnEvent(ev) })
	}
}

func (b *Bridge) upsert(eventType string, id int64, payload json.RawMessage, h Handlers) {
	if id <= 0 || h.OnTransmutationUpsert == nil {
		return
	}
	b.guard(eventType, h, func() error { return h.OnTransmutationUpsert(payload) })
}

// call runs a lifecycle callback under guard.
func (b *Bridge) call(name string, h Handlers, fn func()) {
	b.guard(name, h, func() error {
		fn()
		return nil
	})
}

// guard runs fn, turning a panic into an error, and reports any failure.
func (b *Bridge) guard(eventType string, h Handlers, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	err = fmt.Errorf("handle %s: %w", eventType, err)
	b.logger.Error().Err(err).Msg("realtime handler failed")
	b.notifier.Error(app.MsgRealtimeEventFailed)

	if h.OnHandlerError != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error().Interface("panic", r).Msg("realtime error handler panicked")
				}
			}()
			h.OnHandlerError(err)
		}()
	}
}

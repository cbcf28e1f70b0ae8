// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

const eventStreamType = "text/event-stream"

// frameReader splits an event stream into frames. Lines may end in "\n" or
// "\r\n".
type frameReader struct {
	r *bufio.Reader

	lastID  string
	retry   time.Duration
	evType  string
	data    bytes.Buffer
	hasData bool
}

func newFrameReader(r io.Reader, lastID string) *frameReader {
	return &frameReader{r: bufio.NewReader(r), lastID: lastID}
}

// Next returns the next complete frame. It returns io.EOF when the stream
// ends; a partially received frame is discarded.
func (f *frameReader) Next() (models.RawEvent, error) {
	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return models.RawEvent{}, io.EOF
			}
			return models.RawEvent{}, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if ev, ok := f.dispatch(); ok {
				return ev, nil
			}
			continue
		}
		f.field(line)
	}
}

// Retry returns the last reconnection delay sent by the server, or 0.
func (f *frameReader) Retry() time.Duration { return f.retry }

// LastID returns the last event id seen.
func (f *frameReader) LastID() string { return f.lastID }

func (f *frameReader) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}

	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "event":
		f.evType = value
	case "data":
		if f.hasData {
			f.data.WriteByte('\n')
		}
		f.data.WriteString(value)
		f.hasData = true
	case "id":
		if !strings.ContainsRune(value, 0) {
			f.lastID = value
		}
	case "retry":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			f.retry = time.Duration(ms) * time.Millisecond
		}
	}
}

func (f *frameReader) dispatch() (models.RawEvent, bool) {
	defer func() {
		f.evType = ""
		f.data.Reset()
		f.hasData = false
	}()

	if !f.hasData {
		return models.RawEvent{}, false
	}

	evType := f.evType
	if evType == "" {
		evType = models.EventMessage
	}
	return models.RawEvent{
		ID:   f.lastID,
		Type: evType,
		Data: bytes.Clone(f.data.Bytes()),
	}, true
}

// sourceSink receives the transport's lifecycle and frames. All calls come
// from the goroutine running eventSource.run.
type sourceSink interface {
	opened()
	failed(err error)
	received(ev models.RawEvent)
}

// eventSource is a reconnecting event-stream reader over resty.
type eventSource struct {
	http   *utils.HTTPClient
	url    string
	token  string
	retry  time.Duration
	lastID string
	logger *logger.Logger
}

// run connects and reads until ctx is done or the server rejects the stream.
// After a transport error it waits for the retry delay and reconnects with
// Last-Event-ID.
func (s *eventSource) run(ctx context.Context, sink sourceSink) {
	for {
		err := s.once(ctx, sink)
		if ctx.Err() != nil {
			return
		}
		sink.failed(err)
		if errors.Is(err, ErrStreamRejected) {
			return
		}

		s.logger.Debug().Err(err).Dur("retry", s.retry).Str("last_event_id", s.lastID).Msg("reconnecting event stream")

		timer := time.NewTimer(s.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// once performs one connection. It always returns a non-nil error.
func (s *eventSource) once(ctx context.Context, sink sourceSink) error {
	r := s.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", eventStreamType).
		SetHeader("Cache-Control", "no-cache").
		SetQueryParam("token", s.token)
	if s.lastID != "" {
		r.SetHeader("Last-Event-ID", s.lastID)
	}

	resp, err := r.Get(s.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStreamTransport, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if status := resp.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrStreamRejected, status)
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header().Get("Content-Type")); mediaType != eventStreamType {
		return fmt.Errorf("%w: content type %q", ErrStreamRejected, resp.Header().Get("Content-Type"))
	}

	sink.opened()

	frames := newFrameReader(body, s.lastID)
	defer func() {
		s.lastID = frames.LastID()
		if retry := frames.Retry(); retry > 0 {
			s.retry = retry
		}
	}()

	for {
		ev, err := frames.Next()
		if errors.Is(err, io.EOF) {
			return ErrStreamClosed
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStreamTransport, err)
		}
		sink.received(ev)
	}
}

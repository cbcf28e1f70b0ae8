package testserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

type stream struct {
	frames chan string
	done   chan struct{}
}

func (s *Server) realtime(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming no soportado", nil)
		return
	}

	s.mu.Lock()
	user, ok := s.userFor(r.URL.Query().Get("token"))
	if !ok {
		s.mu.Unlock()
		utils.WriteError(w, http.StatusUnauthorized, "token inválido", nil)
		return
	}
	s.nextStream++
	id := s.nextStream
	st := &stream{frames: make(chan string, 64), done: make(chan struct{})}
	s.streams[id] = st
	s.streamOpens++
	if last := r.Header.Get("Last-Event-ID"); last != "" {
		s.lastEventIDs = append(s.lastEventIDs, last)
	}
	retry, ping := s.retryMillis, s.pingInterval
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.streams, id)
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, ": connected\nretry: %d\n\n", retry)
	fmt.Fprintf(w, "event: %s\ndata: {\"userId\":%d,\"role\":%q}\n\n", models.EventHello, user.ID, user.Role)
	flusher.Flush()

	var tick <-chan time.Time
	if ping > 0 {
		ticker := time.NewTicker(ping)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-st.done:
			return
		case <-tick:
			fmt.Fprintf(w, "event: %s\ndata: {\"ts\":%d}\n\n", models.EventPing, time.Now().Unix())
			flusher.Flush()
		case frame := <-st.frames:
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}
}

// Publish sends one named event with data to every open stream. data may
// span several lines and is not required to be JSON. An empty event name
// produces an unnamed (default "message") event.
func (s *Server) Publish(event, data string) {
	s.mu.Lock()
	s.eventSeq++
	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", s.eventSeq)
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	s.broadcast(b.String())
	s.mu.Unlock()
}

// PublishRaw writes frame verbatim to every open stream.
func (s *Server) PublishRaw(frame string) {
	s.mu.Lock()
	s.broadcast(frame)
	s.mu.Unlock()
}

// broadcast queues frame on every stream. Callers hold s.mu.
func (s *Server) broadcast(frame string) {
	for _, st := range s.streams {
		select {
		case st.frames <- frame:
		default:
		}
	}
}

// DropStreams ends every open stream from the server side, as a restarting
// backend would.
func (s *Server) DropStreams() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range s.streams {
		close(st.done)
		delete(s.streams, id)
	}
}

// OpenStreams returns the number of connected event streams.
func (s *Server) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// StreamOpens returns how many event streams were accepted in total.
func (s *Server) StreamOpens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamOpens
}

// LastEventIDs returns the Last-Event-ID headers sent on reconnects.
func (s *Server) LastEventIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastEventIDs...)
}

// SetPingInterval makes streams emit a ping event every d. Zero disables
// pings. Applies to streams opened afterwards.
func (s *Server) SetPingInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingInterval = d
}

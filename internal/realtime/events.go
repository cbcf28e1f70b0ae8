// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/amestris-client/models"
)

// Event is one decoded server-push event. The set of implementations is
// closed: Hello, Ping, TransmutationCreated, TransmutationUpdated,
// TransmutationDeleted, Message and Unknown.
type Event interface {
	// Type returns the event name as sent by the server.
	Type() string
	// LastEventID returns the stream id in effect when the event arrived.
	LastEventID() string

	event()
}

type meta struct {
	ID string `json:"-"`
}

func (m meta) LastEventID() string { return m.ID }
func (meta) event()                {}

// Hello is sent once when the stream opens.
type Hello struct {
	meta
	UserID int64       `json:"userId"`
	Role   models.Role `json:"role"`
}

func (Hello) Type() string { return models.EventHello }

// Ping is a liveness signal.
type Ping struct {
	meta
	TS int64 `json:"ts"`
}

func (Ping) Type() string { return models.EventPing }

// TransmutationCreated carries a new transmutation. Payload is the event data
// as sent, so consumers can merge only the fields present.
type TransmutationCreated struct {
	meta
	ID      int64
	Payload json.RawMessage
}

func (TransmutationCreated) Type() string { return models.EventTransmutationCreated }

// TransmutationUpdated carries a changed transmutation.
type TransmutationUpdated struct {
	meta
	ID      int64
	Payload json.RawMessage
}

func (TransmutationUpdated) Type() string { return models.EventTransmutationUpdated }

// TransmutationDeleted names a removed transmutation.
type TransmutationDeleted struct {
	meta
	ID int64
}

func (TransmutationDeleted) Type() string { return models.EventTransmutationDeleted }

// Message is an unnamed event. Payload is set when the data is valid JSON;
// otherwise the data is passed through unchanged in Raw.
type Message struct {
	meta
	Payload json.RawMessage
	Raw     []byte
}

func (Message) Type() string { return models.EventMessage }

// Unknown is an event with an unrecognised name, or a known name whose
// payload did not decode. Err is nil for unrecognised names.
type Unknown struct {
	meta
	Name string
	Raw  []byte
	Err  error
}

func (u Unknown) Type() string { return u.Name }

// Decode turns a raw frame into a typed event. It never fails: payloads that
// do not match their schema become Unknown with a non-nil Err.
func Decode(raw models.RawEvent) Event {
	m := meta{ID: raw.ID}
	data := bytes.TrimSpace(raw.Data)

	unknown := func(err error) Event {
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrMalformedEvent, raw.Type, err)
		}
		return Unknown{meta: m, Name: raw.Type, Raw: raw.Data, Err: err}
	}

	switch raw.Type {
	case models.EventHello:
		ev := Hello{meta: m}
		if err := decodeObject(data, &ev); err != nil {
			return unknown(err)
		}
		return ev

	case models.EventPing:
		ev := Ping{meta: m}
		if len(data) > 0 {
			if err := decodeObject(data, &ev); err != nil {
				return unknown(err)
			}
		}
		return ev

	case models.EventTransmutationCreated, models.EventTransmutationUpdated:
		id, err := decodeID(data)
		if err != nil {
			return unknown(err)
		}
		payload := json.RawMessage(data)
		if raw.Type == models.EventTransmutationCreated {
			return TransmutationCreated{meta: m, ID: id, Payload: payload}
		}
		return TransmutationUpdated{meta: m, ID: id, Payload: payload}

	case models.EventTransmutationDeleted:
		id, err := decodeID(data)
		if err != nil {
			return unknown(err)
		}
		return TransmutationDeleted{meta: m, ID: id}

	case models.EventMessage, "":
		if json.Valid(data) {
			return Message{meta: m, Payload: json.RawMessage(data), Raw: raw.Data}
		}
		return Message{meta: m, Raw: raw.Data}
	}

	return unknown(nil)
}

// decodeObject requires data to be a JSON object.
func decodeObject(data []byte, v any) error {
	if len(data) == 0 || data[0] != '{' {
		return errors.New("expected a JSON object")
	}
	return json.Unmarshal(data, v)
}

// decodeID reads the "id" member of a JSON object. A missing id is 0.
// Only integral JSON numbers are ids: "5" or 5.0 is malformed, so the event
// decodes to Unknown instead of being applied under a guessed id.
func decodeID(data []byte) (int64, error) {
	var head struct {
		ID int64 `json:"id"`
	}
	if err := decodeObject(data, &head); err != nil {
		return 0, err
	}
	return head.ID, nil
}

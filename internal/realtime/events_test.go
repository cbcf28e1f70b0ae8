// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/amestris-client/models"
)

func TestDecode(t *testing.T) {
	raw := func(eventType, data string) models.RawEvent {
		return models.RawEvent{ID: "3", Type: eventType, Data: []byte(data)}
	}

	tests := []struct {
		name string
		in   models.RawEvent
		want Event
	}{
		{
			name: "hello",
			in:   raw("hello", `{"userId":1,"role":"SUPERVISOR"}`),
			want: Hello{meta: meta{ID: "3"}, UserID: 1, Role: models.RoleSupervisor},
		},
		{
			name: "ping",
			in:   raw("ping", `{"ts":1700000000}`),
			want: Ping{meta: meta{ID: "3"}, TS: 1700000000},
		},
		{
			name: "ping without payload",
			in:   raw("ping", ""),
			want: Ping{meta: meta{ID: "3"}},
		},
		{
			name: "created",
			in:   raw("transmutation.created", `{"id":9,"title":"x"}`),
			want: TransmutationCreated{meta: meta{ID: "3"}, ID: 9, Payload: json.RawMessage(`{"id":9,"title":"x"}`)},
		},
		{
			name: "updated without id",
			in:   raw("transmutation.updated", `{"title":"x"}`),
			want: TransmutationUpdated{meta: meta{ID: "3"}, ID: 0, Payload: json.RawMessage(`{"title":"x"}`)},
		},
		{
			name: "deleted",
			in:   raw("transmutation.deleted", `{"id":5}`),
			want: TransmutationDeleted{meta: meta{ID: "3"}, ID: 5},
		},
		{
			name: "json message",
			in:   raw("message", `{"text":"hi"}`),
			want: Message{meta: meta{ID: "3"}, Payload: json.RawMessage(`{"text":"hi"}`), Raw: []byte(`{"text":"hi"}`)},
		},
		{
			name: "raw message passes through",
			in:   raw("message", "hello there"),
			want: Message{meta: meta{ID: "3"}, Raw: []byte("hello there")},
		},
		{
			name: "unrecognised name",
			in:   raw("mission.created", `{"id":1}`),
			want: Unknown{meta: meta{ID: "3"}, Name: "mission.created", Raw: []byte(`{"id":1}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.in)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, "3", got.LastEventID())
		})
	}
}

func TestDecode_MalformedFailsClosed(t *testing.T) {
	tests := []struct {
		eventType string
		data      string
	}{
		{eventType: "hello", data: "not json"},
		{eventType: "ping", data: `[1,2]`},
		{eventType: "transmutation.created", data: "{oops"},
		{eventType: "transmutation.updated", data: `"text"`},
		{eventType: "transmutation.deleted", data: `{"id":"5"}`},
		{eventType: "transmutation.deleted", data: `{"id":5.0}`},
		{eventType: "transmutation.created", data: `{"id":"5","title":"Iron"}`},
		{eventType: "transmutation.updated", data: `{"id":5.5}`},
		{eventType: "transmutation.deleted", data: ""},
	}

	for _, tt := range tests {
		t.Run(tt.eventType+" "+tt.data, func(t *testing.T) {
			got := Decode(models.RawEvent{Type: tt.eventType, Data: []byte(tt.data)})

			unknown, ok := got.(Unknown)
			require.True(t, ok, "got %T", got)
			assert.Equal(t, tt.eventType, unknown.Type())
			assert.Equal(t, []byte(tt.data), unknown.Raw)
			assert.ErrorIs(t, unknown.Err, ErrMalformedEvent)
		})
	}
}

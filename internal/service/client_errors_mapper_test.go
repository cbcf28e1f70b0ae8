// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/app"
	"github.com/MKhiriev/amestris-client/internal/validators"
)

func TestMapAdapterError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		wantIs error
	}{
		{name: "unauthorized", err: httpErr(http.StatusUnauthorized, "credenciales inválidas"), wantIs: ErrInvalidCredentials},
		{name: "conflict", err: httpErr(http.StatusConflict, "email ya registrado"), wantIs: ErrEmailAlreadyRegistered},
		{name: "validation", err: httpErr(http.StatusUnprocessableEntity, "validación"), wantIs: ErrInvalidDataProvided},
		{name: "forbidden", err: httpErr(http.StatusForbidden, "prohibido"), wantIs: ErrForbiddenRole},
		{name: "not found passes through", err: httpErr(http.StatusNotFound, "x"), wantIs: adapter.ErrNotFound},
		{name: "timeout passes through", err: adapter.ErrTimeout, wantIs: adapter.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapAdapterError(tt.err)
			assert.ErrorIs(t, got, tt.wantIs)
			assert.ErrorIs(t, got, tt.err, "original error stays in the chain")
		})
	}

	assert.NoError(t, mapAdapterError(nil))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "timeout", err: fmt.Errorf("%w: context deadline exceeded", adapter.ErrTimeout), want: app.MsgTimeout},
		{name: "network", err: fmt.Errorf("%w: dial tcp: connection refused", adapter.ErrNetwork), want: app.MsgNetworkError},
		{name: "invalid credentials", err: mapAdapterError(httpErr(http.StatusUnauthorized, "x")), want: app.MsgInvalidCredentials},
		{name: "conflict", err: mapAdapterError(httpErr(http.StatusConflict, "x")), want: app.MsgEmailAlreadyRegistered},
		{name: "local validation", err: &validators.FieldError{Field: "title", Err: validators.ErrEmptyTitle}, want: app.MsgInvalidDataProvided},
		{name: "server validation", err: mapAdapterError(httpErr(http.StatusUnprocessableEntity, "x")), want: app.MsgInvalidDataProvided},
		{name: "forbidden role", err: ErrForbiddenRole, want: app.MsgAccessDenied},
		{name: "terminal 401", err: httpErr(http.StatusUnauthorized, "token inválido"), want: app.MsgSessionExpired},
		{name: "not found", err: httpErr(http.StatusNotFound, "material no encontrado"), want: app.MsgNotFound},
		{name: "bare 5xx", err: httpErr(http.StatusBadGateway, "HTTP 502"), want: app.MsgInternalServerError},
		{name: "5xx with message", err: httpErr(http.StatusInternalServerError, "db down"), want: "db down"},
		{name: "other", err: errors.New("something else"), want: "something else"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

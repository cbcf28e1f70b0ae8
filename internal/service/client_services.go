// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/notify"
	"github.com/MKhiriev/amestris-client/internal/validators"
)

type ClientServices struct {
	Session       *Session
	Transmutation *TransmutationFeed
	Validator     validators.Validator
}

// NewClientServices wires the session and the transmutation feed over the
// request client c and its typed APIs.
func NewClientServices(c *adapter.Client, api *adapter.API, tokens SessionTokens, notifier notify.Notifier, log *logger.Logger) *ClientServices {
	validator := validators.NewFormValidator()
	session := NewSession(api.Auth, tokens, validator, log, WithRefresher(c))

	return &ClientServices{
		Session:       session,
		Transmutation: NewTransmutationFeed(api.Transmutations, session, notifier, log),
		Validator:     validator,
	}
}

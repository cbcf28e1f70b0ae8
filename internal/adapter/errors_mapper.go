// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/amestris-client/models"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	return &HTTPError{
		StatusCode: resp.StatusCode(),
		Message:    errorMessage(resp.StatusCode(), resp.Body()),
		Body:       resp.Body(),
	}
}

func errorMessage(status int, body []byte) string {
	var payload models.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("HTTP %d", status)
}

// mapTransportError classifies an error returned before any response was
// received. ctx is the context the request ran under.
func mapTransportError(ctx context.Context, err error) error {
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request canceled: %w", err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}

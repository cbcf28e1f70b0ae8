// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is a page of resources.
//
// List endpoints answer either with a bare JSON array or with a paginated
// envelope {items, page, pageSize, total}; both decode into List.
type List[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`
	Total    int `json:"total,omitempty"`
}

// UnmarshalJSON implements [json.Unmarshaler].
func (l *List[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = List[T]{}
		return nil
	}

	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("decode list array: %w", err)
		}
		*l = List[T]{Items: items, Total: len(items)}
		return nil
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("decode list envelope: %w", err)
	}
	*l = List[T]{Items: env.Items, Page: env.Page, PageSize: env.PageSize, Total: env.Total}
	return nil
}

// listEnvelope mirrors List without its UnmarshalJSON method.
type listEnvelope[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

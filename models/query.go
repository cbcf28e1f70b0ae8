// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// TransmutationQuery filters the transmutation list. Zero fields are omitted
// from the query string.
type TransmutationQuery struct {
	Page     int
	PageSize int
	// Q is a free-text search over titles.
	Q string
}

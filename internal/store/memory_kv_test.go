// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyValueStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryKeyValueStorage()

	_, err := m.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, m.Set(ctx, "token", "a1"))
	require.NoError(t, m.Set(ctx, "token", "a2"))

	value, err := m.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "a2", value)

	require.NoError(t, m.Delete(ctx, "token"))
	require.NoError(t, m.Delete(ctx, "token"))

	_, err = m.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package notify

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/amestris-client/internal/logger"
)

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	n.Success("material created")
	n.Info("transmutation #7 deleted")
	n.Error("could not reach the server")

	assert.Equal(t, "✔ material created\nℹ transmutation #7 deleted\n✖ could not reach the server\n", buf.String())
}

func TestWriterNotifier_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Info("tick")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
	for _, line := range lines {
		assert.Equal(t, "ℹ tick", line)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.NewLogger(&buf, "test", false))

	n.Error("boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "error", entry["kind"])
	assert.Equal(t, "notify", entry["component"])
	assert.Equal(t, "boom", entry["message"])
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	n := Multi(NewWriterNotifier(&a), Nop{}, NewWriterNotifier(&b))

	n.Success("ok")

	assert.Equal(t, "✔ ok\n", a.String())
	assert.Equal(t, "✔ ok\n", b.String())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Workers runs a fixed set of workers concurrently.
type Workers struct {
	workers []Worker
}

// NewWorkers groups ws. Nil workers are skipped.
func NewWorkers(ws ...Worker) *Workers {
	out := &Workers{}
	for _, w := range ws {
		if w != nil {
			out.workers = append(out.workers, w)
		}
	}
	return out
}

// Run starts every worker and blocks until all have returned. The first
// error cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		worker := worker
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}
	return g.Wait()
}

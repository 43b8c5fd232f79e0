// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package workerpool provides an index-preserving, bounded-concurrency
// parallel map used by package convert's Phase 2 encode/decode. It is
// grounded in the same errgroup+semaphore combination
// github.com/hupe1980/vecgo's resource controller uses to bound concurrent
// background work: errgroup.Group collects the first error and waits for
// every goroutine, while a semaphore.Weighted caps how many run at once so
// a single huge batch cannot spawn thousands of goroutines.
package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// MaxWorkers bounds the number of goroutines a single Map call will run
// concurrently. Defaults to GOMAXPROCS, mirroring the CPU-bound nature of
// BSON encode/decode work described in spec.md §4.4.
var MaxWorkers = runtime.GOMAXPROCS(0)

// Map applies fn to every index in [0, n) using up to MaxWorkers concurrent
// goroutines, writing results into a pre-sized, index-addressed out slice
// supplied by the caller so output order matches input order regardless of
// scheduling — spec.md §4.4's "ordering guarantee." The first error from
// any fn short-circuits the remaining work and is returned; results for
// indices that never ran are left at out's zero value.
func Map(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	sem := semaphore.NewWeighted(int64(MaxWorkers))
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			// ctx is only cancelled by a failing fn; g.Wait returns that error.
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			return fn(i)
		})
	}
	return g.Wait()
}

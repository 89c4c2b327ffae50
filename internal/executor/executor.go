// Copyright 2017 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package executor implements the cooperative completion queue that
// every user-visible continuation in the pubsub package runs on:
// publish flush callbacks, subscriber handler dispatch, and AckHandler
// side effects. No continuation is ever invoked on a caller's own
// goroutine.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Executor runs tasks on a bounded pool of worker goroutines and
// schedules delayed tasks (timers). It is safe for concurrent use.
type Executor struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	onPanic func(error)

	mu       sync.Mutex
	shutdown bool
}

// New creates an Executor that runs at most workers tasks concurrently.
// workers < 1 is treated as 1. onPanic, if non-nil, is invoked
// (synchronously, on the worker goroutine) whenever a task scheduled
// with RunAsync panics; the panic is otherwise contained and does not
// crash the process or any other task.
func New(workers int, onPanic func(error)) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		sem:     semaphore.NewWeighted(int64(workers)),
		onPanic: onPanic,
	}
}

// RunAsync schedules fn to run on a worker goroutine. It returns
// immediately; fn never runs on the calling goroutine. RunAsync is a
// no-op after Shutdown.
func (e *Executor) RunAsync(fn func()) {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer e.sem.Release(1)
		defer func() {
			if r := recover(); r != nil && e.onPanic != nil {
				e.onPanic(fmt.Errorf("pubsub: task panic: %v", r))
			}
		}()
		fn()
	}()
}

// Schedule arms a timer that runs fn (via RunAsync) after delay. The
// returned cancel function stops the timer; it has no effect once the
// timer has already fired. Scheduled tasks that have not yet fired are
// abandoned, not run, once Shutdown is called.
func (e *Executor) Schedule(delay time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(delay, func() { e.RunAsync(fn) })
	return func() { t.Stop() }
}

// Shutdown prevents further tasks from being scheduled and blocks until
// all already-scheduled tasks have run.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()
	e.wg.Wait()
}

// Copyright 2014 Google Inc. All Rights Reserved.
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

package pubsub

import (
	"context"
	"sync"

	gax "github.com/googleapis/gax-go/v2"
	"golang.org/x/sync/errgroup"
)

// ReceiveSettings controls how Subscription.Receive pulls and
// dispatches messages.
type ReceiveSettings struct {
	// NumGoroutines is the number of concurrent pull loops Receive
	// runs. Each loop issues its own synchronous Pull call, so this
	// must be greater than 1 for handlers of one loop's messages to run
	// concurrently with another loop's in-flight Pull.
	NumGoroutines int

	// MaxPrefetch is the max_messages value sent on each Pull request.
	MaxPrefetch int32

	// MaxOutstandingMessages and MaxOutstandingBytes bound how many
	// delivered-but-not-yet-handled messages may be outstanding across
	// all of this Subscription's goroutines at once. Zero selects the
	// default (1000 messages, no byte limit); a negative value means
	// unbounded along that dimension.
	MaxOutstandingMessages int
	MaxOutstandingBytes    int
}

func (s *ReceiveSettings) setDefaults() {
	if s.NumGoroutines <= 0 {
		s.NumGoroutines = 10
	}
	if s.MaxPrefetch <= 0 {
		s.MaxPrefetch = 1000
	}
	if s.MaxOutstandingMessages == 0 {
		s.MaxOutstandingMessages = 1000
	}
	if s.MaxOutstandingBytes == 0 {
		s.MaxOutstandingBytes = -1
	}
}

// DefaultReceiveSettings is applied to a Subscription that was not
// given explicit ReceiveSettings.
var DefaultReceiveSettings = ReceiveSettings{
	NumGoroutines:          10,
	MaxPrefetch:            1000,
	MaxOutstandingMessages: 1000,
	MaxOutstandingBytes:    -1,
}

// SubscriberOption configures a Subscription at construction time.
type SubscriberOption func(*ReceiveSettings)

// WithReceiveSettings overrides DefaultReceiveSettings.
func WithReceiveSettings(settings ReceiveSettings) SubscriberOption {
	return func(s *ReceiveSettings) { *s = settings }
}

// Handler is invoked once per delivered message, on an executor
// goroutine that is never the goroutine that called Receive. ah must
// eventually have Ack or Nack called on it exactly once; a handler
// that returns without calling either leaves the message to be
// redelivered once its ack deadline lapses.
type Handler func(ctx context.Context, m *Message, ah *AckHandler)

// Subscription owns the subscriber pull/dispatch engine for one
// subscription: Receive runs NumGoroutines pull loops, each issuing
// synchronous Pull calls and dispatching deliveries to Handler on the
// shared executor.
type Subscription struct {
	c        *Client
	id       SubscriptionID
	Settings ReceiveSettings

	mu            sync.Mutex
	receiveActive bool
}

// Subscription returns a subscriber handle for id.
func (c *Client) Subscription(id SubscriptionID, opts ...SubscriberOption) *Subscription {
	settings := DefaultReceiveSettings
	for _, opt := range opts {
		opt(&settings)
	}
	return &Subscription{c: c, id: id, Settings: settings}
}

// ID returns the subscription's identifier.
func (s *Subscription) ID() SubscriptionID { return s.id }

// Receive runs the pull/dispatch loop until ctx is done or a Pull
// error is not retried: a permanent error, or a transient one after
// maxTransientPullRetries consecutive retries. An invalid subscription
// id is rejected before any Pull is issued. ctx plays the
// role of the cancellable future's cancel(): canceling it makes
// Receive return nil (cooperative cancellation resolves OK, it is
// never reported as an error). Receive blocks the calling goroutine for
// its entire run; callers that want a cancellable future in the
// conventional Go sense run it in its own goroutine alongside a
// context.CancelFunc.
//
// Only one Receive call may be active on a Subscription at a time.
func (s *Subscription) Receive(ctx context.Context, f Handler) error {
	if err := s.id.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.receiveActive {
		s.mu.Unlock()
		return errReceiveInProgress
	}
	s.receiveActive = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.receiveActive = false
		s.mu.Unlock()
	}()

	settings := s.Settings
	settings.setDefaults()

	fc := newFlowController(settings.MaxOutstandingMessages, settings.MaxOutstandingBytes, FlowControlBlock)

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < settings.NumGoroutines; i++ {
		group.Go(func() error {
			return s.pullLoop(gctx, fc, settings, f)
		})
	}
	return group.Wait()
}

// pullLoop runs one logical pull/dispatch iteration repeatedly until
// ctx is done or a Pull error is not retried.
func (s *Subscription) pullLoop(ctx context.Context, fc *flowController, settings ReceiveSettings, f Handler) error {
	bo := pullBackoff()
	consecutiveTransient := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		resp, err := s.c.Stub.Pull(ctx, PullRequest{
			Subscription:      s.id.String(),
			MaxMessages:       settings.MaxPrefetch,
			ReturnImmediately: false,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isRetryablePull(err) && consecutiveTransient < maxTransientPullRetries {
				consecutiveTransient++
				if serr := gax.Sleep(ctx, bo.Pause()); serr != nil {
					return nil
				}
				continue
			}
			return err
		}
		consecutiveTransient = 0

		if len(resp.ReceivedMessages) == 0 {
			if serr := gax.Sleep(ctx, synchronousWaitTime); serr != nil {
				return nil
			}
			continue
		}

		for _, rm := range resp.ReceivedMessages {
			s.dispatch(ctx, fc, rm, f)
		}
	}
}

// dispatch admits one delivery through the flow controller and
// schedules its handler call on the executor.
func (s *Subscription) dispatch(ctx context.Context, fc *flowController, rm ReceivedMessage, f Handler) {
	size := rm.Message.size()
	if err := fc.acquire(ctx, size); err != nil {
		// Context was canceled while waiting for flow-control
		// capacity; the message is left unacked for redelivery.
		return
	}

	ah := newAckHandler(s.id.String(), rm.AckID, s.c.Stub, s.c.executor)
	msg := rm.Message

	s.c.executor.RunAsync(func() {
		defer fc.release(size)
		defer func() {
			if r := recover(); r != nil && s.c.onPanic != nil {
				s.c.onPanic(handlerPanicError(r))
			}
		}()
		f(ctx, msg, ah)
	})
}

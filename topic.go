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
	"time"
)

// BatchingConfig controls how Topic.Publish groups messages into
// publish requests.
type BatchingConfig struct {
	// MaxMessageCount flushes the current batch once it holds this
	// many messages. Minimum 1.
	MaxMessageCount int

	// MaxBatchBytes flushes the current batch once its accumulated
	// serialized size would reach or exceed this many bytes. A single
	// message larger than this fails Publish immediately with
	// INVALID_ARGUMENT; it is never split across batches.
	MaxBatchBytes int

	// MaxHoldTime bounds how long the first message of a batch waits
	// before the batch is flushed, even if neither count nor byte
	// threshold has been reached. Zero means flush on the next
	// executor turn rather than synchronously inside Publish.
	MaxHoldTime time.Duration
}

func (c *BatchingConfig) setDefaults() {
	if c.MaxMessageCount <= 0 {
		c.MaxMessageCount = 100
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = 1 << 20 // 1 MiB
	}
	if c.MaxHoldTime < 0 {
		c.MaxHoldTime = 10 * time.Millisecond
	}
}

// FlowControlSettings bounds how many messages, and how many bytes of
// message payload, Topic.Publish will admit before being acked by the
// transport. This is the batching policy's own flow control, not a
// general-purpose tuning knob.
type FlowControlSettings struct {
	MaxOutstandingMessages int
	MaxOutstandingBytes    int
	LimitExceededBehavior  LimitExceededBehavior
}

// DefaultBatchingConfig is applied to a Topic that was not given an
// explicit BatchingConfig.
var DefaultBatchingConfig = BatchingConfig{
	MaxMessageCount: 100,
	MaxBatchBytes:   1 << 20,
	MaxHoldTime:     10 * time.Millisecond,
}

// PublisherOptions collects the options a Topic was constructed with.
type PublisherOptions struct {
	Batching    BatchingConfig
	FlowControl FlowControlSettings
}

// PublisherOption configures a Topic at construction time.
type PublisherOption func(*PublisherOptions)

// WithBatching overrides the default BatchingConfig.
func WithBatching(cfg BatchingConfig) PublisherOption {
	return func(o *PublisherOptions) { o.Batching = cfg }
}

// WithPublishFlowControl enables flow control on outstanding publishes.
// The default is FlowControlIgnore, so that Publish never suspends
// unless the caller opts in here.
func WithPublishFlowControl(settings FlowControlSettings) PublisherOption {
	return func(o *PublisherOptions) { o.FlowControl = settings }
}

// pendingItem is one message waiting in the current batch, together
// with its promise and the flow-control size it was admitted under.
type pendingItem struct {
	msg    *Message
	result *PublishResult
	size   int
}

// pendingBatch is the engine's current, not-yet-flushed batch.
type pendingBatch struct {
	items     []pendingItem
	byteCount int
}

// Topic owns the publisher batching engine for one topic: it
// accumulates messages under a short-held lock and flushes them to the
// transport Stub by count, byte size, or hold time, whichever trigger
// fires first.
type Topic struct {
	c    *Client
	id   TopicID
	opts PublisherOptions
	fc   *flowController

	mu         sync.Mutex
	batch      *pendingBatch
	generation uint64
	stopped    bool
	cancelTmr  func()

	wg sync.WaitGroup // outstanding sendBatch calls, for Stop
}

// Topic returns a publisher handle for id. opts, if given, override
// DefaultBatchingConfig and the default (disabled) flow control.
func (c *Client) Topic(id TopicID, opts ...PublisherOption) *Topic {
	o := PublisherOptions{Batching: DefaultBatchingConfig}
	for _, opt := range opts {
		opt(&o)
	}
	o.Batching.setDefaults()

	var fc *flowController
	if o.FlowControl.LimitExceededBehavior != FlowControlIgnore {
		fc = newFlowController(o.FlowControl.MaxOutstandingMessages, o.FlowControl.MaxOutstandingBytes, o.FlowControl.LimitExceededBehavior)
	}

	return &Topic{
		c:     c,
		id:    id,
		opts:  o,
		fc:    fc,
		batch: &pendingBatch{},
	}
}

// ID returns the topic's identifier.
func (t *Topic) ID() TopicID { return t.id }

// Publish appends m to the current batch and returns a future for its
// eventual message id or failure status. Publish never blocks waiting
// for the transport; it only suspends the caller if flow control was
// configured to FlowControlBlock and the configured limit is currently
// exhausted.
func (t *Topic) Publish(ctx context.Context, m *Message) *PublishResult {
	res := newPublishResult()

	if err := t.id.Validate(); err != nil {
		res.set("", err)
		return res
	}

	size := m.size()
	if size > t.opts.Batching.MaxBatchBytes {
		res.set("", errOversizedMessage(size, t.opts.Batching.MaxBatchBytes))
		return res
	}

	if t.fc != nil {
		if err := t.fc.acquire(ctx, size); err != nil {
			res.set("", err)
			return res
		}
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		if t.fc != nil {
			t.fc.release(size)
		}
		res.set("", ErrTopicStopped)
		return res
	}

	t.batch.items = append(t.batch.items, pendingItem{msg: m, result: res, size: size})
	t.batch.byteCount += size

	var toSend *pendingBatch
	switch {
	case len(t.batch.items) >= t.opts.Batching.MaxMessageCount:
		toSend = t.detachAndResetLocked()
	case t.batch.byteCount >= t.opts.Batching.MaxBatchBytes:
		toSend = t.detachAndResetLocked()
	case len(t.batch.items) == 1:
		gen := t.generation
		if t.cancelTmr != nil {
			t.cancelTmr()
		}
		t.cancelTmr = t.c.executor.Schedule(t.opts.Batching.MaxHoldTime, func() {
			t.flushIfGeneration(gen)
		})
	}
	t.mu.Unlock()

	if toSend != nil {
		t.sendBatch(ctx, toSend)
	}
	return res
}

// detachAndResetLocked detaches the current batch, replaces it with an
// empty one, and bumps the flush generation so that any timer armed
// for the detached batch becomes a no-op. t.mu must be held.
func (t *Topic) detachAndResetLocked() *pendingBatch {
	batch := t.batch
	t.batch = &pendingBatch{}
	t.generation++
	t.cancelTmr = nil
	return batch
}

// flushIfGeneration flushes the current batch iff no flush has
// happened for it since gen was captured (i.e. this call is the timer
// callback for the batch that is still current).
func (t *Topic) flushIfGeneration(gen uint64) {
	t.mu.Lock()
	if t.generation != gen || len(t.batch.items) == 0 {
		t.mu.Unlock()
		return
	}
	toSend := t.detachAndResetLocked()
	t.mu.Unlock()
	t.sendBatch(context.Background(), toSend)
}

// Flush forces any pending, not-yet-flushed messages out to the
// transport without waiting for a trigger. It does not wait for the
// resulting PublishResults to resolve.
func (t *Topic) Flush() {
	t.mu.Lock()
	if len(t.batch.items) == 0 {
		t.mu.Unlock()
		return
	}
	toSend := t.detachAndResetLocked()
	t.mu.Unlock()
	t.sendBatch(context.Background(), toSend)
}

// Stop flushes any remaining pending messages and marks the topic as
// stopped; subsequent Publish calls fail with ErrTopicStopped. Stop
// blocks until every batch it flushed (including ones already in
// flight) has resolved its PublishResults, so that no message is ever
// silently dropped.
func (t *Topic) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		t.wg.Wait()
		return
	}
	t.stopped = true
	var toSend *pendingBatch
	if len(t.batch.items) > 0 {
		toSend = t.detachAndResetLocked()
	}
	t.mu.Unlock()

	if toSend != nil {
		t.sendBatch(context.Background(), toSend)
	}
	t.wg.Wait()
}

// sendBatch submits batch to the transport and arranges for every
// PublishResult in it to be resolved, on an executor goroutine, once
// the transport call completes.
func (t *Topic) sendBatch(ctx context.Context, batch *pendingBatch) {
	if len(batch.items) == 0 {
		return
	}
	req := PublishRequest{Topic: t.id.String(), Messages: make([]*Message, len(batch.items))}
	for i, it := range batch.items {
		req.Messages[i] = it.msg
	}

	t.wg.Add(1)
	t.c.Stub.AsyncPublish(t.c.executor, ctx, req, func(resp *PublishResponse, err error) {
		defer t.wg.Done()
		if t.fc != nil {
			for _, it := range batch.items {
				t.fc.release(it.size)
			}
		}
		switch {
		case err != nil:
			for _, it := range batch.items {
				it.result.set("", err)
			}
		case len(resp.MessageIDs) != len(batch.items):
			for _, it := range batch.items {
				it.result.set("", errMismatchedMessageIDCount)
			}
		default:
			for i, it := range batch.items {
				it.result.set(resp.MessageIDs[i], nil)
			}
		}
	})
}

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

package pubsub

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// LimitExceededBehavior configures what a flowController does once its
// limits are exceeded.
type LimitExceededBehavior int

const (
	// FlowControlIgnore disables flow control.
	FlowControlIgnore LimitExceededBehavior = iota
	// FlowControlBlock waits until the request can proceed without
	// exceeding the limit.
	FlowControlBlock
	// FlowControlSignalError returns an error to the caller of acquire
	// instead of blocking.
	FlowControlSignalError
)

var (
	// ErrFlowControllerMaxOutstandingMessages reports that the
	// configured outstanding message count limit was exceeded under
	// FlowControlSignalError.
	ErrFlowControllerMaxOutstandingMessages = errors.New("pubsub: MaxOutstandingMessages flow controller limit exceeded")
	// ErrFlowControllerMaxOutstandingBytes reports that the configured
	// outstanding byte limit was exceeded under FlowControlSignalError.
	ErrFlowControllerMaxOutstandingBytes = errors.New("pubsub: MaxOutstandingBytes flow control limit exceeded")
)

// flowController bounds the number and total size of messages
// outstanding at once between a caller (Topic.Publish or a subscriber
// dispatch) and the point where that message is released (batch
// resolution, or handler completion).
type flowController struct {
	maxCount          int
	maxSize           int
	semCount, semSize *semaphore.Weighted

	// countRemaining is calls to acquire minus calls to release.
	// Atomic.
	countRemaining int64
	limitBehavior  LimitExceededBehavior
}

// newFlowController creates a flowController that admits no more than
// maxCount messages or maxSize bytes outstanding at once. A non-positive
// maxCount or maxSize means unlimited along that dimension.
func newFlowController(maxCount, maxSize int, behavior LimitExceededBehavior) *flowController {
	fc := &flowController{
		maxCount:      maxCount,
		maxSize:       maxSize,
		limitBehavior: behavior,
	}
	if maxCount > 0 {
		fc.semCount = semaphore.NewWeighted(int64(maxCount))
	}
	if maxSize > 0 {
		fc.semSize = semaphore.NewWeighted(int64(maxSize))
	}
	return fc
}

// acquire reserves capacity for one message of size bytes, honoring the
// configured LimitExceededBehavior. Under FlowControlBlock it may block
// until ctx is done. Oversized messages are treated as if they were
// exactly maxSize under Ignore/Block, and rejected outright under
// SignalError.
func (f *flowController) acquire(ctx context.Context, size int) error {
	switch f.limitBehavior {
	case FlowControlIgnore:
		return nil
	case FlowControlBlock:
		if f.semCount != nil {
			if err := f.semCount.Acquire(ctx, 1); err != nil {
				return err
			}
		}
		if f.semSize != nil {
			if err := f.semSize.Acquire(ctx, f.bound(size)); err != nil {
				if f.semCount != nil {
					f.semCount.Release(1)
				}
				return err
			}
		}
	case FlowControlSignalError:
		if f.semCount != nil {
			if !f.semCount.TryAcquire(1) {
				return ErrFlowControllerMaxOutstandingMessages
			}
		}
		if f.semSize != nil {
			if !f.semSize.TryAcquire(int64(size)) {
				if f.semCount != nil {
					f.semCount.Release(1)
				}
				return ErrFlowControllerMaxOutstandingBytes
			}
		}
	}
	atomic.AddInt64(&f.countRemaining, 1)
	return nil
}

// release notes that one message of size bytes is no longer outstanding.
func (f *flowController) release(size int) {
	if f.limitBehavior == FlowControlIgnore {
		return
	}
	atomic.AddInt64(&f.countRemaining, -1)
	if f.semCount != nil {
		f.semCount.Release(1)
	}
	if f.semSize != nil {
		f.semSize.Release(f.bound(size))
	}
}

func (f *flowController) bound(size int) int64 {
	if f.maxSize > 0 && size > f.maxSize {
		return int64(f.maxSize)
	}
	return int64(size)
}

func (f *flowController) count() int {
	return int(atomic.LoadInt64(&f.countRemaining))
}

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
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrTopicStopped is returned by Publish once Topic.Stop has been
// called.
var ErrTopicStopped = errors.New("pubsub: Stop has been called for this Topic")

// errReceiveInProgress is returned by Receive if it is called on a
// Subscription that is already receiving.
var errReceiveInProgress = errors.New("pubsub: Receive already in progress for this Subscription")

// errOversizedMessage reports that a single message exceeds the
// configured maximum batch size. Such a message fails synchronously;
// the batching engine never splits one message across multiple
// publish requests.
func errOversizedMessage(size, max int) error {
	return status.Errorf(codes.InvalidArgument,
		"pubsub: message of %d bytes exceeds the %d byte maximum batch size", size, max)
}

// errMismatchedMessageIDCount is returned when a publish response's
// message id count does not match the number of messages in the batch
// that produced it.
var errMismatchedMessageIDCount = status.Error(codes.Unknown, "mismatched message id count")

// handlerPanicError wraps a recovered subscriber-handler panic so it
// can be reported through Client's onPanic hook. The session itself is
// not terminated: a panicking handler is treated as if it declined to
// ack, and the server will eventually redeliver.
func handlerPanicError(r interface{}) error {
	return fmt.Errorf("pubsub: subscriber handler panic: %v", r)
}

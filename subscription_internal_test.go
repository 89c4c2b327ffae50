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
	"errors"
	"testing"
	"time"
)

// blockingPullStub is a minimal Stub whose Pull blocks until ctx is
// done, used only to exercise Subscription.Receive's single-flight
// guard directly, without depending on the pstest package (which
// imports this package and would otherwise create an import cycle for
// an internal test).
type blockingPullStub struct{ noopStub }

func (blockingPullStub) Pull(ctx context.Context, req PullRequest) (*PullResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSubscriptionReceive_RejectsConcurrentCalls(t *testing.T) {
	c, err := NewClient(context.Background(), "proj", blockingPullStub{}, ConnectionOptions{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	sub := c.Subscription(subID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sub.Receive(ctx, func(context.Context, *Message, *AckHandler) {})
	}()
	time.Sleep(10 * time.Millisecond)

	if err := sub.Receive(context.Background(), func(context.Context, *Message, *AckHandler) {}); !errors.Is(err, errReceiveInProgress) {
		t.Fatalf("got %v, want errReceiveInProgress", err)
	}
}

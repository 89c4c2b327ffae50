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

package pubsub_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/cloudpubsub/pubsub"
	"github.com/cloudpubsub/pubsub/internal/testutil"
	"github.com/cloudpubsub/pubsub/pstest"
)

func mustCreateSub(t *testing.T, c *Client, id SubscriptionID, topic TopicID) {
	t.Helper()
	if err := c.CreateSubscription(context.Background(), id, topic); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
}

func TestSubscriptionReceive_AcksDelivered(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)
	mustCreateSub(t, c, subID, topicID)

	top := c.Topic(topicID, WithBatching(BatchingConfig{MaxMessageCount: 1, MaxHoldTime: time.Hour}))
	defer top.Stop()

	want := []string{"a", "b", "c"}
	for _, d := range want {
		top.Publish(context.Background(), &Message{Data: []byte(d)})
	}

	sub := c.Subscription(subID, WithReceiveSettings(ReceiveSettings{NumGoroutines: 2, MaxPrefetch: 10}))

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sub.Receive(ctx, func(ctx context.Context, m *Message, ah *AckHandler) {
			mu.Lock()
			got = append(got, string(m.Data))
			done := len(got) == len(want)
			mu.Unlock()
			ah.Ack()
			if done {
				cancel()
			}
		})
	}()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == len(want) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for deliveries, got %d/%d", n, len(want))
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if err := testutil.VerifyDelivery(want, got); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionReceive_PullFailureIsTerminal(t *testing.T) {
	srv := pstest.NewServer()
	srv.PullErr = errors.New("pull boom")
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)
	mustCreateSub(t, c, subID, topicID)

	sub := c.Subscription(subID, WithReceiveSettings(ReceiveSettings{NumGoroutines: 1}))

	err := sub.Receive(context.Background(), func(ctx context.Context, m *Message, ah *AckHandler) {
		t.Fatal("handler should never be called")
	})
	if err == nil {
		t.Fatal("wanted error, got nil")
	}
}

func TestSubscriptionReceive_CooperativeCancelReturnsNil(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)
	mustCreateSub(t, c, subID, topicID)

	sub := c.Subscription(subID)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := sub.Receive(ctx, func(context.Context, *Message, *AckHandler) {}); err != nil {
		t.Fatalf("got %v, want nil on cooperative cancellation", err)
	}
}

func TestSubscriptionReceive_DoubleCancelIsIdempotent(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)
	mustCreateSub(t, c, subID, topicID)

	sub := c.Subscription(subID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancel() // canceling an already-canceled context must not panic

	if err := sub.Receive(ctx, func(context.Context, *Message, *AckHandler) {}); err != nil {
		t.Fatalf("Receive on an already-canceled context: got %v, want nil", err)
	}

	// The session is now finished; calling Receive again on the same
	// exhausted context must return the same stable terminal result
	// rather than erroring or blocking.
	if err := sub.Receive(ctx, func(context.Context, *Message, *AckHandler) {}); err != nil {
		t.Fatalf("Receive again after the session already finished: got %v, want nil", err)
	}
}

func TestAckHandler_DoubleAckIsIdempotent(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)
	mustCreateSub(t, c, subID, topicID)

	top := c.Topic(topicID, WithBatching(BatchingConfig{MaxMessageCount: 1, MaxHoldTime: time.Hour}))
	top.Publish(context.Background(), &Message{Data: []byte("x")})
	top.Stop()

	sub := c.Subscription(subID)
	ctx, cancel := context.WithCancel(context.Background())

	sub.Receive(ctx, func(ctx context.Context, m *Message, ah *AckHandler) {
		ah.Ack()
		ah.Ack() // must not panic or double-send
		ah.Nack()
		cancel()
	})
}

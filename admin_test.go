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

package pubsub_test

import (
	"context"
	"testing"

	. "github.com/cloudpubsub/pubsub"
	"github.com/cloudpubsub/pubsub/pstest"
)

func TestClientAdmin_CreateListDeleteTopic(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	id := TopicID{Project: "proj", Topic: "t"}

	if err := c.CreateTopic(context.Background(), id); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	topics, err := c.ListTopics(context.Background(), "proj")
	if err != nil || len(topics) != 1 {
		t.Fatalf("ListTopics: %v, %v", topics, err)
	}
	if err := c.DeleteTopic(context.Background(), id); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	topics, err = c.ListTopics(context.Background(), "proj")
	if err != nil || len(topics) != 0 {
		t.Fatalf("ListTopics after delete: %v, %v", topics, err)
	}
}

func TestClientAdmin_CreateListDeleteSubscription(t *testing.T) {
	srv := pstest.NewServer()
	c := newTestClient(t, srv)
	topicID := TopicID{Project: "proj", Topic: "t"}
	subID := SubscriptionID{Project: "proj", Subscription: "s"}
	mustCreateTopic(t, c, topicID)

	if err := c.CreateSubscription(context.Background(), subID, topicID); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	subs, err := c.ListSubscriptions(context.Background(), "proj")
	if err != nil || len(subs) != 1 {
		t.Fatalf("ListSubscriptions: %v, %v", subs, err)
	}
	if err := c.DeleteSubscription(context.Background(), subID); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	subs, err = c.ListSubscriptions(context.Background(), "proj")
	if err != nil || len(subs) != 0 {
		t.Fatalf("ListSubscriptions after delete: %v, %v", subs, err)
	}
}

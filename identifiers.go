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
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TopicID names a topic by its project and short topic name. It is an
// immutable value; two TopicIDs are equal iff both fields are equal.
type TopicID struct {
	Project string
	Topic   string
}

// String renders the topic in its wire form,
// "projects/{project}/topics/{topic}".
func (t TopicID) String() string {
	return fmt.Sprintf("projects/%s/topics/%s", t.Project, t.Topic)
}

// Validate reports whether t names a usable topic.
func (t TopicID) Validate() error {
	if t.Project == "" {
		return status.Error(codes.InvalidArgument, "pubsub: topic project id is empty")
	}
	if t.Topic == "" {
		return status.Error(codes.InvalidArgument, "pubsub: topic id is empty")
	}
	return nil
}

// SubscriptionID names a subscription by its project and short
// subscription name. It is an immutable value; two SubscriptionIDs are
// equal iff both fields are equal.
type SubscriptionID struct {
	Project      string
	Subscription string
}

// String renders the subscription in its wire form,
// "projects/{project}/subscriptions/{subscription}".
func (s SubscriptionID) String() string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", s.Project, s.Subscription)
}

// Validate reports whether s names a usable subscription.
func (s SubscriptionID) Validate() error {
	if s.Project == "" {
		return status.Error(codes.InvalidArgument, "pubsub: subscription project id is empty")
	}
	if s.Subscription == "" {
		return status.Error(codes.InvalidArgument, "pubsub: subscription id is empty")
	}
	return nil
}

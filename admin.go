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

import "context"

// The methods in this file are thin passthroughs to the transport
// stub's administration surface. Topic/subscription administration is
// out of scope for this package; these exist only so that an external
// admin client has a single, already error-mapped seam to build on,
// rather than re-deriving the stub wiring Client already has.

// CreateTopic creates the topic named by id.
func (c *Client) CreateTopic(ctx context.Context, id TopicID) error {
	return c.Stub.CreateTopic(ctx, id)
}

// ListTopics lists the topics in project.
func (c *Client) ListTopics(ctx context.Context, project string) ([]TopicID, error) {
	return c.Stub.ListTopics(ctx, project)
}

// DeleteTopic deletes the topic named by id.
func (c *Client) DeleteTopic(ctx context.Context, id TopicID) error {
	return c.Stub.DeleteTopic(ctx, id)
}

// CreateSubscription creates a subscription named by id on topic.
func (c *Client) CreateSubscription(ctx context.Context, id SubscriptionID, topic TopicID) error {
	return c.Stub.CreateSubscription(ctx, id, topic)
}

// ListSubscriptions lists the subscriptions in project.
func (c *Client) ListSubscriptions(ctx context.Context, project string) ([]SubscriptionID, error) {
	return c.Stub.ListSubscriptions(ctx, project)
}

// DeleteSubscription deletes the subscription named by id.
func (c *Client) DeleteSubscription(ctx context.Context, id SubscriptionID) error {
	return c.Stub.DeleteSubscription(ctx, id)
}

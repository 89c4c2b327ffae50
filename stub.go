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

	"github.com/cloudpubsub/pubsub/internal/executor"
)

// PullRequest is the wire shape of a Pull call.
type PullRequest struct {
	Subscription      string
	MaxMessages       int32
	ReturnImmediately bool
}

// ReceivedMessage pairs a delivered message with the ack id the server
// assigned to this particular delivery.
type ReceivedMessage struct {
	AckID   string
	Message *Message
}

// PullResponse is the wire shape of a Pull response.
type PullResponse struct {
	ReceivedMessages []ReceivedMessage
}

// PublishRequest is the wire shape of a publish call: one or more
// messages destined for a single topic.
type PublishRequest struct {
	Topic    string
	Messages []*Message
}

// PublishResponse is the wire shape of a publish response: the
// server-assigned message ids, positionally matched to the request's
// Messages.
type PublishResponse struct {
	MessageIDs []string
}

// AcknowledgeRequest is the wire shape of an Acknowledge call.
type AcknowledgeRequest struct {
	Subscription string
	AckIDs       []string
}

// ModifyAckDeadlineRequest is the wire shape of a ModifyAckDeadline
// call. An AckDeadlineSeconds of 0 is how a nack is expressed.
type ModifyAckDeadlineRequest struct {
	Subscription       string
	AckIDs             []string
	AckDeadlineSeconds int32
}

// Stub is the transport seam the core consumes. A concrete
// implementation wraps the remote protocol (see DESIGN.md for why this
// module does not ship one); the pstest package provides the mandatory
// injectable mock. Every method returns the unified codes.Code /
// status.Status error shape, including the admin methods, which the
// core references only for completeness — topic/subscription
// administration itself lives in an external collaborator.
type Stub interface {
	CreateTopic(ctx context.Context, id TopicID) error
	ListTopics(ctx context.Context, project string) ([]TopicID, error)
	DeleteTopic(ctx context.Context, id TopicID) error

	CreateSubscription(ctx context.Context, id SubscriptionID, topic TopicID) error
	ListSubscriptions(ctx context.Context, project string) ([]SubscriptionID, error)
	DeleteSubscription(ctx context.Context, id SubscriptionID) error

	// Pull blocks (from the caller's perspective) until at least one
	// message is available, the request's implicit deadline passes, or
	// ctx is done.
	Pull(ctx context.Context, req PullRequest) (*PullResponse, error)

	Acknowledge(ctx context.Context, req AcknowledgeRequest) error
	ModifyAckDeadline(ctx context.Context, req ModifyAckDeadlineRequest) error

	// AsyncPublish issues req and invokes done with the result once the
	// call completes. done always runs on an ex worker goroutine, never
	// on the calling goroutine.
	AsyncPublish(ex *executor.Executor, ctx context.Context, req PublishRequest, done func(*PublishResponse, error))
}

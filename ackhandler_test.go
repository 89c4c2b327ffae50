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
	"sync/atomic"
	"testing"

	"github.com/cloudpubsub/pubsub/internal/executor"
)

// noopStub is a minimal Stub used only to drive AckHandler directly,
// without depending on the pstest package (which imports this package
// and would otherwise create an import cycle for an internal test).
type noopStub struct{}

func (noopStub) CreateTopic(ctx context.Context, id TopicID) error { return nil }
func (noopStub) ListTopics(ctx context.Context, project string) ([]TopicID, error) {
	return nil, nil
}
func (noopStub) DeleteTopic(ctx context.Context, id TopicID) error { return nil }
func (noopStub) CreateSubscription(ctx context.Context, id SubscriptionID, topic TopicID) error {
	return nil
}
func (noopStub) ListSubscriptions(ctx context.Context, project string) ([]SubscriptionID, error) {
	return nil, nil
}
func (noopStub) DeleteSubscription(ctx context.Context, id SubscriptionID) error { return nil }
func (noopStub) Pull(ctx context.Context, req PullRequest) (*PullResponse, error) {
	return &PullResponse{}, nil
}
func (noopStub) Acknowledge(ctx context.Context, req AcknowledgeRequest) error      { return nil }
func (noopStub) ModifyAckDeadline(ctx context.Context, req ModifyAckDeadlineRequest) error {
	return nil
}
func (noopStub) AsyncPublish(ex *executor.Executor, ctx context.Context, req PublishRequest, done func(*PublishResponse, error)) {
	done(&PublishResponse{}, nil)
}

// countingStub counts the Acknowledge and ModifyAckDeadline calls that
// reach the transport, so the one-shot tests can check how many RPCs an
// AckHandler issued.
type countingStub struct {
	noopStub
	acks, modAcks *int32
}

func (s countingStub) Acknowledge(ctx context.Context, req AcknowledgeRequest) error {
	atomic.AddInt32(s.acks, 1)
	return nil
}

func (s countingStub) ModifyAckDeadline(ctx context.Context, req ModifyAckDeadlineRequest) error {
	atomic.AddInt32(s.modAcks, 1)
	return nil
}

func TestAckHandler_AckIsOneShot(t *testing.T) {
	subID := SubscriptionID{Project: "proj", Subscription: "s"}

	ex := executor.New(2, nil)
	defer ex.Shutdown()

	var acks, modAcks int32
	ah := newAckHandler(subID.String(), "ack-1", countingStub{acks: &acks, modAcks: &modAcks}, ex)
	if got := ah.AckID(); got != "ack-1" {
		t.Fatalf("AckID() = %q, want ack-1", got)
	}

	ah.Ack()
	ah.Ack() // second call must be a no-op, not a second RPC
	ah.Nack()

	// Shutdown waits for the (at most one) scheduled RPC to run.
	ex.Shutdown()
	if got := atomic.LoadInt32(&acks); got != 1 {
		t.Errorf("Acknowledge calls = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&modAcks); got != 0 {
		t.Errorf("ModifyAckDeadline calls = %d, want 0", got)
	}
}

func TestAckHandler_NackIsOneShot(t *testing.T) {
	subID := SubscriptionID{Project: "proj", Subscription: "s"}

	ex := executor.New(2, nil)
	defer ex.Shutdown()

	var acks, modAcks int32
	ah := newAckHandler(subID.String(), "ack-2", countingStub{acks: &acks, modAcks: &modAcks}, ex)
	ah.Nack()
	ah.Nack()
	ah.Ack() // should also be a no-op, since Nack already won

	ex.Shutdown()
	if got := atomic.LoadInt32(&modAcks); got != 1 {
		t.Errorf("ModifyAckDeadline calls = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&acks); got != 0 {
		t.Errorf("Acknowledge calls = %d, want 0", got)
	}
}

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

	"github.com/cloudpubsub/pubsub/internal/executor"
)

// AckHandler is the one-shot, move-only capability a subscriber
// handler uses to acknowledge or decline a single delivery. At most
// one of Ack or Nack takes effect; later calls (including a second
// call to the same method) are no-ops. Neither call blocks the caller
// waiting for the remote acknowledgement to complete.
type AckHandler struct {
	subscription string
	ackID        string
	Stub         Stub
	executor     *executor.Executor

	done atomic.Bool
}

func newAckHandler(subscription, ackID string, st Stub, ex *executor.Executor) *AckHandler {
	return &AckHandler{subscription: subscription, ackID: ackID, Stub: st, executor: ex}
}

// AckID returns the server-assigned delivery token this handler
// carries. Intended for tests and observability.
func (h *AckHandler) AckID() string {
	return h.ackID
}

// Ack acknowledges the delivery. The actual Acknowledge RPC is
// best-effort: its failure is not surfaced anywhere, since the server
// will simply redeliver.
func (h *AckHandler) Ack() {
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	sub, ackID, st := h.subscription, h.ackID, h.Stub
	h.executor.RunAsync(func() {
		_ = st.Acknowledge(context.Background(), AcknowledgeRequest{
			Subscription: sub,
			AckIDs:       []string{ackID},
		})
	})
}

// Nack declines the delivery by resetting its ack deadline to zero,
// making the message immediately eligible for redelivery. Like Ack,
// failures of the underlying call are not surfaced.
func (h *AckHandler) Nack() {
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	sub, ackID, st := h.subscription, h.ackID, h.Stub
	h.executor.RunAsync(func() {
		_ = st.ModifyAckDeadline(context.Background(), ModifyAckDeadlineRequest{
			Subscription:       sub,
			AckIDs:             []string{ackID},
			AckDeadlineSeconds: 0,
		})
	})
}

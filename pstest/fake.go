// Copyright 2017 Google Inc. All Rights Reserved.
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

// Package pstest provides an in-memory, injectable fake of the
// pubsub.Stub transport seam, for use in unit and integration-style
// tests that should not depend on a real service or emulator.
package pstest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudpubsub/pubsub"
	"github.com/cloudpubsub/pubsub/internal/executor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server is an in-memory implementation of pubsub.Stub. It is safe for
// concurrent use. The zero value is not usable; construct one with
// NewServer.
//
// The error-injection fields (PublishErr, PullErr, AckErr,
// ModifyAckDeadlineErr) are checked before the corresponding call's
// normal logic runs, letting a test force a permanent failure without
// needing a second fake implementation.
type Server struct {
	mu     sync.Mutex
	topics map[string]*topic
	subs   map[string]*subscription

	nextMsgID int
	nextAckID int

	// publishBatches records the message ids assigned by every
	// successful AsyncPublish call, in call order, so a test can assert
	// on how many transport calls a given publish workload produced.
	publishBatches [][]string

	// PublishErr, if non-nil, is returned by every AsyncPublish call in
	// place of actually publishing.
	PublishErr error

	// PullErr, if non-nil, is returned by every Pull call.
	PullErr error

	// AckErr, if non-nil, is returned by every Acknowledge call.
	AckErr error

	// ModifyAckDeadlineErr, if non-nil, is returned by every
	// ModifyAckDeadline call.
	ModifyAckDeadlineErr error
}

// NewServer creates a Server with no topics or subscriptions.
func NewServer() *Server {
	return &Server{
		topics: map[string]*topic{},
		subs:   map[string]*subscription{},
	}
}

type topic struct {
	id   pubsub.TopicID
	subs map[string]*subscription
}

type subscription struct {
	id    pubsub.SubscriptionID
	topic *topic

	mu      sync.Mutex
	undeliv []delivered       // messages waiting to be pulled
	leased  map[string]delivered // ackID -> message, currently out for delivery
}

type delivered struct {
	ackID string
	msg   *pubsub.Message
}

// CreateTopic registers id. It is an error to create a topic that
// already exists.
func (s *Server) CreateTopic(_ context.Context, id pubsub.TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, ok := s.topics[key]; ok {
		return status.Errorf(codes.AlreadyExists, "pstest: topic %q already exists", key)
	}
	s.topics[key] = &topic{id: id, subs: map[string]*subscription{}}
	return nil
}

// ListTopics lists every topic created for project.
func (s *Server) ListTopics(_ context.Context, project string) ([]pubsub.TopicID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pubsub.TopicID
	for _, t := range s.topics {
		if t.id.Project == project {
			out = append(out, t.id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

// DeleteTopic removes id and every subscription attached to it.
func (s *Server) DeleteTopic(_ context.Context, id pubsub.TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	t, ok := s.topics[key]
	if !ok {
		return status.Errorf(codes.NotFound, "pstest: topic %q not found", key)
	}
	for subKey := range t.subs {
		delete(s.subs, subKey)
	}
	delete(s.topics, key)
	return nil
}

// CreateSubscription registers id, attached to topic. It is an error
// to create a subscription that already exists or whose topic does
// not exist.
func (s *Server) CreateSubscription(_ context.Context, id pubsub.SubscriptionID, topicID pubsub.TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topicKey := topicID.String()
	t, ok := s.topics[topicKey]
	if !ok {
		return status.Errorf(codes.NotFound, "pstest: topic %q not found", topicKey)
	}
	subKey := id.String()
	if _, ok := s.subs[subKey]; ok {
		return status.Errorf(codes.AlreadyExists, "pstest: subscription %q already exists", subKey)
	}
	sub := &subscription{id: id, topic: t, leased: map[string]delivered{}}
	s.subs[subKey] = sub
	t.subs[subKey] = sub
	return nil
}

// ListSubscriptions lists every subscription created for project.
func (s *Server) ListSubscriptions(_ context.Context, project string) ([]pubsub.SubscriptionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pubsub.SubscriptionID
	for _, sub := range s.subs {
		if sub.id.Project == project {
			out = append(out, sub.id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subscription < out[j].Subscription })
	return out, nil
}

// DeleteSubscription removes id.
func (s *Server) DeleteSubscription(_ context.Context, id pubsub.SubscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	sub, ok := s.subs[key]
	if !ok {
		return status.Errorf(codes.NotFound, "pstest: subscription %q not found", key)
	}
	delete(sub.topic.subs, key)
	delete(s.subs, key)
	return nil
}

// AsyncPublish appends req's messages to every subscription attached
// to req.Topic, assigning each a sequential "mid-N" server id, then
// invokes done on an ex goroutine. If PublishErr is set, done is
// invoked with that error and no message is stored anywhere.
func (s *Server) AsyncPublish(ex *executor.Executor, _ context.Context, req pubsub.PublishRequest, done func(*pubsub.PublishResponse, error)) {
	s.mu.Lock()
	if s.PublishErr != nil {
		err := s.PublishErr
		s.mu.Unlock()
		ex.RunAsync(func() { done(nil, err) })
		return
	}

	t, ok := s.topics[req.Topic]
	if !ok {
		s.mu.Unlock()
		err := status.Errorf(codes.NotFound, "pstest: topic %q not found", req.Topic)
		ex.RunAsync(func() { done(nil, err) })
		return
	}

	ids := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		id := fmt.Sprintf("mid-%d", s.nextMsgID)
		s.nextMsgID++
		ids[i] = id

		stored := *m
		stored.ID = id
		for _, sub := range t.subs {
			sub.enqueue(&stored, s.nextAckIDLocked())
		}
	}
	s.publishBatches = append(s.publishBatches, ids)
	s.mu.Unlock()

	resp := &pubsub.PublishResponse{MessageIDs: ids}
	ex.RunAsync(func() { done(resp, nil) })
}

// PublishBatches returns the message ids assigned in each successful
// AsyncPublish call so far, in call order. Its length is the number of
// distinct transport calls the publish workload produced.
func (s *Server) PublishBatches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.publishBatches))
	copy(out, s.publishBatches)
	return out
}

// nextAckIDLocked returns a fresh sequential "aN" ack id. Callers must
// hold s.mu.
func (s *Server) nextAckIDLocked() string {
	id := fmt.Sprintf("a%d", s.nextAckID)
	s.nextAckID++
	return id
}

func (sub *subscription) enqueue(m *pubsub.Message, ackID string) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.undeliv = append(sub.undeliv, delivered{ackID: ackID, msg: m})
}

// Pull returns up to req.MaxMessages currently undelivered messages
// for req.Subscription, leasing each under the ack id assigned when it
// was enqueued. A message is never in both sub.undeliv and sub.leased
// at once, so that id is always free to lease.
func (s *Server) Pull(_ context.Context, req pubsub.PullRequest) (*pubsub.PullResponse, error) {
	s.mu.Lock()
	if s.PullErr != nil {
		err := s.PullErr
		s.mu.Unlock()
		return nil, err
	}
	sub, ok := s.subs[req.Subscription]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "pstest: subscription %q not found", req.Subscription)
	}

	max := int(req.MaxMessages)
	if max <= 0 {
		max = 1000
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	n := len(sub.undeliv)
	if n > max {
		n = max
	}
	if n == 0 {
		return &pubsub.PullResponse{}, nil
	}

	out := make([]pubsub.ReceivedMessage, 0, n)
	for _, d := range sub.undeliv[:n] {
		sub.leased[d.ackID] = d
		out = append(out, pubsub.ReceivedMessage{AckID: d.ackID, Message: d.msg})
	}
	sub.undeliv = sub.undeliv[n:]
	return &pubsub.PullResponse{ReceivedMessages: out}, nil
}

// Acknowledge removes req.AckIDs from their subscription's lease set,
// permanently retiring the delivery.
func (s *Server) Acknowledge(_ context.Context, req pubsub.AcknowledgeRequest) error {
	s.mu.Lock()
	if s.AckErr != nil {
		err := s.AckErr
		s.mu.Unlock()
		return err
	}
	sub, ok := s.subs[req.Subscription]
	s.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "pstest: subscription %q not found", req.Subscription)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	for _, id := range req.AckIDs {
		delete(sub.leased, id)
	}
	return nil
}

// ModifyAckDeadline with AckDeadlineSeconds of zero (the only form
// this package's AckHandler.Nack issues) returns the named deliveries
// to the undelivered queue, immediately eligible for redelivery by a
// later Pull. A non-zero deadline is accepted but has no effect, since
// this fake does not model deadline expiry.
func (s *Server) ModifyAckDeadline(_ context.Context, req pubsub.ModifyAckDeadlineRequest) error {
	s.mu.Lock()
	if s.ModifyAckDeadlineErr != nil {
		err := s.ModifyAckDeadlineErr
		s.mu.Unlock()
		return err
	}
	sub, ok := s.subs[req.Subscription]
	s.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "pstest: subscription %q not found", req.Subscription)
	}

	if req.AckDeadlineSeconds != 0 {
		return nil
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	for _, id := range req.AckIDs {
		d, ok := sub.leased[id]
		if !ok {
			continue
		}
		delete(sub.leased, id)
		sub.undeliv = append(sub.undeliv, d)
	}
	return nil
}

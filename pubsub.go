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

// Package pubsub implements the publisher and subscriber data-plane
// pipelines of a cloud publish/subscribe messaging client: batched,
// asynchronous publish, and pull-based subscriber dispatch onto a
// worker pool. Topic/subscription administration is out of scope; the
// Stub interface in this package exposes it only so that an external
// admin client has something to wrap.
package pubsub

import (
	"context"
	"os"

	"github.com/cloudpubsub/pubsub/internal/executor"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// defaultExecutorWorkers is the worker count used when ConnectionOptions
// does not supply an externally-owned Executor.
const defaultExecutorWorkers = 10

// emulatorHostEnvVar is the environment variable that, when set,
// redirects the client to a local emulator endpoint with insecure
// credentials substituted for real ones.
const emulatorHostEnvVar = "PUBSUB_EMULATOR_HOST"

// ConnectionOptions configures a Client.
type ConnectionOptions struct {
	// Endpoint is the transport address to dial. NewClient neither
	// dials nor stores it, since the Stub passed to NewClient is the
	// transport; applyEmulator rewrites it when PUBSUB_EMULATOR_HOST is
	// set.
	Endpoint string

	// Insecure disables transport credentials, e.g. for talking to a
	// local emulator.
	Insecure bool

	// UserAgentProduct and UserAgentVersion name this client in the
	// pieces a transport-layer user-agent string would be assembled
	// from; see version.go.
	UserAgentProduct string
	UserAgentVersion string

	// ChannelID distinguishes multiple logical connections to the same
	// endpoint, so they can be multiplexed over distinct transport
	// channels rather than sharing one. This package only carries the
	// value: neither NewClient nor UserAgent reads it.
	ChannelID int

	// Executor, if non-nil, is used instead of a library-owned one.
	// Client.Close will not shut it down. Supply this to disable the
	// library's own background worker threads.
	Executor *executor.Executor

	// ExecutorWorkers sets the worker count for a library-owned
	// executor. Ignored if Executor is set. Defaults to
	// defaultExecutorWorkers.
	ExecutorWorkers int

	// ErrorFunc, if non-nil, is invoked whenever a subscriber handler
	// or another executor task panics. Failed Acknowledge and
	// ModifyAckDeadline calls issued by AckHandler are not reported
	// through it.
	ErrorFunc func(error)
}

// applyEmulator redirects Endpoint/Insecure per PUBSUB_EMULATOR_HOST,
// if set.
func (o *ConnectionOptions) applyEmulator() {
	if addr := os.Getenv(emulatorHostEnvVar); addr != "" {
		o.Endpoint = addr
		o.Insecure = true
	}
}

// Client is the shared entry point for a project's topics and
// subscriptions. It owns (or borrows, per ConnectionOptions) the
// executor that every Topic and Subscription created from it
// dispatches continuations on.
type Client struct {
	projectID    string
	Stub         Stub
	executor     *executor.Executor
	ownsExecutor bool
	onPanic      func(error)
}

// NewClient creates a Client for projectID that issues every data-plane
// and admin call through st. Production callers construct st by
// wrapping their transport of choice; tests inject the pstest mock.
func NewClient(ctx context.Context, projectID string, st Stub, opts ConnectionOptions) (*Client, error) {
	if projectID == "" {
		return nil, status.Error(codes.InvalidArgument, "pubsub: projectID is empty")
	}
	if st == nil {
		return nil, status.Error(codes.InvalidArgument, "pubsub: Stub is nil")
	}
	opts.applyEmulator()

	ex := opts.Executor
	owns := false
	if ex == nil {
		workers := opts.ExecutorWorkers
		if workers <= 0 {
			workers = defaultExecutorWorkers
		}
		ex = executor.New(workers, opts.ErrorFunc)
		owns = true
	}

	return &Client{
		projectID:    projectID,
		Stub:         st,
		executor:     ex,
		ownsExecutor: owns,
		onPanic:      opts.ErrorFunc,
	}, nil
}

// Project returns the project id the Client was constructed with.
func (c *Client) Project() string { return c.projectID }

// Close shuts down the Client's executor, if the Client owns one.
// Topics that have pending messages should be Stopped before Close is
// called.
func (c *Client) Close() error {
	if c.ownsExecutor {
		c.executor.Shutdown()
	}
	return nil
}

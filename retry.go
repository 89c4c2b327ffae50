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
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxTransientPullRetries bounds the number of consecutive transient
// Pull failures the pull loop will retry before giving up and
// terminating the session with that status. The reference behavior
// terminates on any Pull error; this package instead honors the
// "SHOULD be retried with bounded backoff" guidance for the codes
// isRetryablePull recognizes, bounding the retries rather than retrying
// forever.
const maxTransientPullRetries = 5

// synchronousWaitTime is slept between Pull calls that returned zero
// messages, so that an idle subscription does not spin the pull loop.
const synchronousWaitTime = 100 * time.Millisecond

// pullBackoff returns the backoff schedule used between retried,
// transient Pull failures.
func pullBackoff() gax.Backoff {
	return gax.Backoff{Initial: 100 * time.Millisecond, Max: 10 * time.Second, Multiplier: 1.3}
}

// isRetryablePull reports whether err, returned from a Pull call,
// names a transient condition worth retrying. The classification
// follows the taxonomy's own grouping of transient vs. permanent
// codes: DEADLINE_EXCEEDED, INTERNAL, ABORTED and UNAVAILABLE are
// retried; everything else (including PERMISSION_DENIED,
// INVALID_ARGUMENT, NOT_FOUND) is treated as permanent.
func isRetryablePull(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.DeadlineExceeded, codes.Internal, codes.Aborted, codes.Unavailable:
		return true
	default:
		return false
	}
}

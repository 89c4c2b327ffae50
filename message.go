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

import "time"

// Message is a unit of data submitted by a publisher and delivered to a
// subscriber. ID and PublishTime are set by the server and are only
// meaningful on messages obtained from Receive; they are ignored (and
// should be left zero) on messages passed to Publish.
type Message struct {
	// Data is the payload carried by the message. It may be empty if
	// Attributes is non-empty.
	Data []byte

	// Attributes are arbitrary key/value metadata attached to the
	// message. Keys are unique. Being a Go map, Attributes keeps no
	// insertion order, on either the publish or the receive side.
	Attributes map[string]string

	// ID is assigned by the server on publish. Present on messages
	// obtained from Receive, absent on messages passed to Publish.
	ID string

	// PublishTime is set by the server. Present on messages obtained
	// from Receive.
	PublishTime time.Time

	// OrderingKey, if non-empty, identifies messages that the server
	// ordering mechanism would deliver in order. The batching and
	// dispatch engines in this package do not implement that mechanism.
	OrderingKey string
}

// size estimates the serialized wire size of m. There is no protobuf
// codec available to this package, so the estimate is the sum of the
// payload, ordering key, and attribute key and value bytes. It leaves
// out per-field encoding overhead, so it is smaller than the real wire
// size; the batching thresholds in BatchingConfig are compared against
// this estimate.
func (m *Message) size() int {
	n := len(m.Data) + len(m.OrderingKey)
	for k, v := range m.Attributes {
		n += len(k) + len(v)
	}
	return n
}

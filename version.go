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
	"runtime"
)

// Version is this package's release version, reported in the
// user-agent prefix a transport-layer dial would attach.
const Version = "0.1.0"

// UserAgent assembles the user-agent prefix pieces named in
// ConnectionOptions: library name, version, and platform fragments,
// plus the caller-supplied product name/version if any.
func UserAgent(opts ConnectionOptions) string {
	ua := fmt.Sprintf("pubsub-go/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
	if opts.UserAgentProduct != "" {
		ua = fmt.Sprintf("%s/%s %s", opts.UserAgentProduct, opts.UserAgentVersion, ua)
	}
	return ua
}

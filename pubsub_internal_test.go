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

package pubsub

import (
	"os"
	"testing"
)

func TestApplyEmulator_OverridesEndpoint(t *testing.T) {
	const envVar = "PUBSUB_EMULATOR_HOST"
	old, had := os.LookupEnv(envVar)
	os.Setenv(envVar, "localhost:1234")
	defer func() {
		if had {
			os.Setenv(envVar, old)
		} else {
			os.Unsetenv(envVar)
		}
	}()

	opts := ConnectionOptions{Endpoint: "real.example.com:443"}
	opts.applyEmulator()
	if opts.Endpoint != "localhost:1234" || !opts.Insecure {
		t.Errorf("applyEmulator() = %+v, want emulator endpoint + Insecure", opts)
	}
}

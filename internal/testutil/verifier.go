// Copyright 2019 Google LLC
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

package testutil

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
)

// VerifyDelivery checks that every datum in published was eventually
// received, and nothing else was. Since handlers may run concurrently
// and out of order, delivery order is not compared, only the
// multiset of data.
func VerifyDelivery(published, received []string) error {
	p := append([]string(nil), published...)
	r := append([]string(nil), received...)
	sort.Strings(p)
	sort.Strings(r)

	if diff := cmp.Diff(p, r); diff != "" {
		return fmt.Errorf("published/received mismatch (-published +received):\n%s", diff)
	}
	return nil
}

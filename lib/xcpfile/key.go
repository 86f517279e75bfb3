//
// Copyright (c) SAS Institute Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package xcpfile

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ParseKey interprets a user-supplied master key. Even-length strings are
// hex-encoded key bytes; anything else is taken as a raw key.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("master key must not be empty")
	}
	if len(s)%2 == 0 {
		key, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decoding hex key: %w", err)
		}
		return key, nil
	}
	return []byte(s), nil
}

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
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when the header magic does not match after
// decryption. The container bytes are already mutated at that point, so the
// caller must retry from a fresh copy with a corrected key.
var ErrInvalidKey = errors.New("invalid key: header magic mismatch after decryption")

// ErrNotCabinet is returned by Parse when the buffer does not start with a
// cabinet header, meaning it was never decrypted or is not a container.
var ErrNotCabinet = errors.New("not a cabinet container")

// CorruptError reports a descriptor whose computed extent falls outside the
// container buffer.
type CorruptError struct {
	Region string
	Offset int64
	Size   int64
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt container: %s extent [%#x..%#x) out of range", e.Region, e.Offset, e.Offset+e.Size)
}

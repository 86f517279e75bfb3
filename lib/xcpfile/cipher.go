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
	"crypto/hmac"
	"crypto/rc4" //nolint:gosec // the container format is defined in terms of RC4
	"crypto/sha1" //nolint:gosec
)

// regionCipher holds the keystream protecting one region of the container.
// The session key is an HMAC-SHA1 of the region's checksum under the master
// key. The confounder is run through the cipher immediately so that the
// usable keystream starts past the initialization block bound to the
// checksum. Keystream position advances one byte per byte decrypted, so one
// instance must never be reused across unrelated regions.
type regionCipher struct {
	stream *rc4.Cipher
}

// sessionKey derives the region's cipher key from the master key and the
// record's checksum.
func sessionKey(masterKey []byte, rec KeyRecord) []byte {
	mac := hmac.New(sha1.New, masterKey)
	mac.Write(rec.Checksum[:])
	return mac.Sum(nil)
}

func newRegionCipher(masterKey []byte, rec KeyRecord) (*regionCipher, error) {
	stream, err := rc4.NewCipher(sessionKey(masterKey, rec))
	if err != nil {
		return nil, err
	}
	var discard [8]byte
	stream.XORKeyStream(discard[:], rec.Confounder[:])
	return &regionCipher{stream: stream}, nil
}

// decrypt applies the next len(buf) bytes of keystream to buf in place.
// RC4 is symmetric, so the same call sequence against plaintext produces
// the original ciphertext.
func (c *regionCipher) decrypt(buf []byte) {
	c.stream.XORKeyStream(buf, buf)
}

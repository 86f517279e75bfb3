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

// Package livepkg reassembles extracted container members into a single
// installable package.
package livepkg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Tag marks the finished output as an installable package.
var Tag = []byte("LIVE")

const chunkSize = 4096

// Merge concatenates every regular file in dir into out, in lexical name
// order, then stamps the package tag over the first four bytes. Members
// carry zero-padded ordinal names assigned during decryption, so lexical
// order reproduces the original file table order. The returned length is
// the total size of the output, which equals the sum of the member sizes:
// the tag overwrites payload bytes rather than prepending to them.
func Merge(dir string, out io.WriteSeeker) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	buf := make([]byte, chunkSize)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, err := appendMember(out, filepath.Join(dir, entry.Name()), buf)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total == 0 {
		return 0, fmt.Errorf("no extracted members found in %s", dir)
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return total, err
	}
	if _, err := out.Write(Tag); err != nil {
		return total, err
	}
	return total, nil
}

func appendMember(out io.Writer, path string, buf []byte) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	// hide the WriteTo fast path so the copy sticks to fixed-size chunks
	return io.CopyBuffer(out, struct{ io.Reader }{f}, buf)
}

/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package magic

import (
	"bytes"
	"io"
	"os"
)

type FileType int

// An encrypted container has no detectable signature, so FileTypeUnknown is
// what a still-encrypted XCP file looks like.
const (
	FileTypeUnknown FileType = iota
	FileTypeCAB
	FileTypeLIVE
)

func Detect(r io.Reader) FileType {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileTypeUnknown
	}
	switch {
	case bytes.Equal(buf[:], []byte("MSCF")):
		return FileTypeCAB
	case bytes.Equal(buf[:], []byte("LIVE")):
		return FileTypeLIVE
	}
	return FileTypeUnknown
}

func DetectFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer f.Close()
	return Detect(f), nil
}

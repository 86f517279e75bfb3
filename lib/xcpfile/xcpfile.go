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

// Package xcpfile strips the per-region encryption layer from XCP content
// containers, leaving a plain cabinet file that a stock cabinet extractor
// can unpack.
//
// Every protected region carries its own key record (a keyed checksum plus
// a confounder) from which a session keystream is derived. The header is
// decrypted first and validates the master key; the folder table, the file
// entry table and each folder's data block follow, each under its own
// keystream.
package xcpfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Decrypt removes the encryption layer from the container in buf, mutating
// it in place, and returns the parsed descriptors. On ErrInvalidKey or any
// later failure the buffer is left partially decrypted; callers must operate
// on a scratch copy if the original bytes still matter.
func Decrypt(buf []byte, masterKey []byte) (*Container, error) {
	if err := decryptRegion(buf, masterKey, headerKeyOffset, 0, headerRegionSize, "header"); err != nil {
		return nil, err
	}
	hdr, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	if hdr.Magic != Magic && hdr.Magic != MagicSwapped {
		return nil, ErrInvalidKey
	}
	tableSize := int64(hdr.NumFolders) * folderStride
	if err := decryptRegion(buf, masterKey, folderKeyOffset, folderTableOffset, tableSize, "folder table"); err != nil {
		return nil, err
	}
	files, err := decryptFileTable(buf, masterKey, hdr)
	if err != nil {
		return nil, err
	}
	folders, err := parseFolders(buf, hdr)
	if err != nil {
		return nil, err
	}
	// Folder data regions are disjoint by construction and each one has its
	// own key record, so they can be decrypted concurrently.
	var group errgroup.Group
	for i := range folders {
		folder := &folders[i]
		group.Go(func() error {
			cipher, err := newRegionCipher(masterKey, folder.key)
			if err != nil {
				return err
			}
			start := int64(folder.Offset)
			cipher.decrypt(buf[start : start+folder.Size])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &Container{Header: hdr, Folders: folders, Files: files}, nil
}

// Parse reads the descriptors of an already-decrypted container without
// touching its bytes.
func Parse(buf []byte) (*Container, error) {
	hdr, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	if hdr.Magic != Magic && hdr.Magic != MagicSwapped {
		return nil, ErrNotCabinet
	}
	cur := &cursor{buf: buf, pos: int64(hdr.OffsetFiles)}
	files := make([]File, 0, hdr.NumFiles)
	for i := 0; i < int(hdr.NumFiles); i++ {
		fh, name, err := cur.nextEntry()
		if err != nil {
			return nil, err
		}
		files = append(files, File{FileHeader: fh, Name: string(name), Ordinal: string(name)})
	}
	folders, err := parseFolders(buf, hdr)
	if err != nil {
		return nil, err
	}
	return &Container{Header: hdr, Folders: folders, Files: files}, nil
}

func parseHeader(buf []byte) (Header, error) {
	var hdr Header
	if len(buf) < headerRegionSize {
		return hdr, &CorruptError{Region: "header", Offset: 0, Size: headerRegionSize}
	}
	_ = binary.Read(bytes.NewReader(buf[:headerSize]), binary.LittleEndian, &hdr)
	return hdr, nil
}

// readKeyRecord pulls a region's key material out of the buffer. The record
// must already be plaintext: header decryption exposes the folder and file
// table records, and folder table decryption exposes the per-folder ones.
func readKeyRecord(buf []byte, off int64, region string) (KeyRecord, error) {
	var rec KeyRecord
	if off < 0 || off+keyRecordSize > int64(len(buf)) {
		return rec, &CorruptError{Region: region + " key record", Offset: off, Size: keyRecordSize}
	}
	copy(rec.Checksum[:], buf[off:])
	copy(rec.Confounder[:], buf[off+20:])
	return rec, nil
}

// decryptRegion derives a fresh cipher from the key record at structOff and
// runs it over size bytes starting at dataOff.
func decryptRegion(buf, masterKey []byte, structOff, dataOff, size int64, region string) error {
	rec, err := readKeyRecord(buf, structOff, region)
	if err != nil {
		return err
	}
	if dataOff < 0 || size < 0 || dataOff+size > int64(len(buf)) {
		return &CorruptError{Region: region, Offset: dataOff, Size: size}
	}
	cipher, err := newRegionCipher(masterKey, rec)
	if err != nil {
		return err
	}
	cipher.decrypt(buf[dataOff : dataOff+size])
	return nil
}

// decryptFileTable walks the file entry table under a single keystream,
// decrypting each fixed entry and then its filename one byte at a time until
// the terminator appears. Each decrypted name is immediately overwritten
// with a zero-padded ordinal so that the extracted members sort in table
// order and cannot collide.
func decryptFileTable(buf, masterKey []byte, hdr Header) ([]File, error) {
	if hdr.NumFiles > 1000 {
		return nil, fmt.Errorf("container claims %d file entries; ordinal names only cover 1000", hdr.NumFiles)
	}
	rec, err := readKeyRecord(buf, nameKeyOffset, "file table")
	if err != nil {
		return nil, err
	}
	cipher, err := newRegionCipher(masterKey, rec)
	if err != nil {
		return nil, err
	}
	cur := &cursor{buf: buf, pos: int64(hdr.OffsetFiles), cipher: cipher}
	files := make([]File, 0, hdr.NumFiles)
	for i := 0; i < int(hdr.NumFiles); i++ {
		fh, name, err := cur.nextEntry()
		if err != nil {
			return nil, err
		}
		if len(name) < 3 {
			return nil, &CorruptError{Region: "file name", Offset: cur.pos - int64(len(name)) - 1, Size: int64(len(name))}
		}
		// The last three name bytes become the ordinal; the terminator and
		// any leading prefix stay in place. The decrypted name is captured
		// first since the rewrite destroys it.
		original := string(name)
		copy(name[len(name)-3:], fmt.Sprintf("%03d", i))
		files = append(files, File{FileHeader: fh, Name: original, Ordinal: string(name)})
	}
	return files, nil
}

func parseFolders(buf []byte, hdr Header) ([]Folder, error) {
	folders := make([]Folder, 0, hdr.NumFolders)
	pos := int64(folderTableOffset)
	for i := 0; i < int(hdr.NumFolders); i++ {
		if pos+folderStride > int64(len(buf)) {
			return nil, &CorruptError{Region: "folder table", Offset: pos, Size: folderStride}
		}
		var fh FolderHeader
		_ = binary.Read(bytes.NewReader(buf[pos:pos+folderHeaderSize]), binary.LittleEndian, &fh)
		// The reserved bytes after each descriptor hold the key record for
		// that folder's data region.
		rec, err := readKeyRecord(buf, pos+folderHeaderSize, fmt.Sprintf("folder %d", i))
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{FolderHeader: fh, key: rec})
		pos += folderStride
	}
	// A folder's data runs up to the start of the next one; the last folder
	// owns everything through the end of the container.
	for i := range folders {
		start := int64(folders[i].Offset)
		end := int64(len(buf))
		if i+1 < len(folders) {
			end = int64(folders[i+1].Offset)
		}
		if start < 0 || end < start || end > int64(len(buf)) {
			return nil, &CorruptError{Region: fmt.Sprintf("folder %d data", i), Offset: start, Size: end - start}
		}
		folders[i].Size = end - start
	}
	return folders, nil
}

// cursor walks the file entry table, optionally running a shared region
// cipher over each byte before it is interpreted. The keystream position is
// part of the traversal state, so entries must be consumed strictly in
// table order.
type cursor struct {
	buf    []byte
	pos    int64
	cipher *regionCipher
}

func (c *cursor) next(n int64) ([]byte, error) {
	if c.pos < 0 || c.pos+n > int64(len(c.buf)) {
		return nil, &CorruptError{Region: "file table", Offset: c.pos, Size: n}
	}
	b := c.buf[c.pos : c.pos+n]
	if c.cipher != nil {
		c.cipher.decrypt(b)
	}
	c.pos += n
	return b, nil
}

// nextEntry consumes one fixed entry header plus its NUL-terminated name.
// The name length is unknown until each byte is decrypted, so the scan
// advances the keystream one byte at a time.
func (c *cursor) nextEntry() (FileHeader, []byte, error) {
	var fh FileHeader
	b, err := c.next(fileHeaderSize)
	if err != nil {
		return fh, nil, err
	}
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, &fh)
	start := c.pos
	for {
		b, err := c.next(1)
		if err != nil {
			return fh, nil, err
		}
		if b[0] == 0 {
			return fh, c.buf[start : c.pos-1], nil
		}
	}
}

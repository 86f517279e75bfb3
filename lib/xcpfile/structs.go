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

import "time"

// Accepted header magics. Containers built for the console sometimes carry
// the byte-swapped variant.
const (
	Magic        = 0x4643534d // MSCF
	MagicSwapped = 0x4d534346
)

// Fixed layout of the encrypted container. The first 0x60 bytes form the
// header region; its key record sits just past it at 0x60. The key records
// for the folder table (0x28) and the file-entry table (0x44) are stored
// inside the header region and only become readable once the header has
// been decrypted.
const (
	headerRegionSize   = 0x60
	headerKeyOffset    = 0x60
	folderKeyOffset    = 0x28
	nameKeyOffset      = 0x44
	folderTableOffset  = 0x180
	folderReservedSize = 0x1c
)

const (
	headerSize       = 38
	folderHeaderSize = 8
	fileHeaderSize   = 16
	keyRecordSize    = 28
	folderStride     = folderHeaderSize + folderReservedSize
)

// Header is the cabinet header as it appears once the header region is
// decrypted. All fields are little-endian on disk.
type Header struct {
	Magic          uint32
	HeaderChecksum uint32
	TotalSize      uint32
	FolderChecksum uint32
	OffsetFiles    uint32
	FileChecksum   uint32
	Version        uint16
	NumFolders     uint16
	NumFiles       uint16
	NumFlags       uint16
	Flags          uint16
	SetID          uint16
	CabNumber      uint16
}

// FolderHeader describes one folder in the folder table. On disk each
// descriptor is followed by 0x1c reserved bytes holding the key record for
// that folder's data region.
type FolderHeader struct {
	Offset      uint32
	NumData     uint16
	Compression uint16
}

// FileHeader is the fixed part of a file entry. A NUL-terminated filename
// follows it immediately.
type FileHeader struct {
	UncompressedSize uint32
	FolderOffset     uint32
	FolderIndex      uint16
	Date             uint16
	Time             uint16
	Attributes       uint16
}

// Modified decodes the entry's DOS-style date and time stamps.
func (h FileHeader) Modified() time.Time {
	year := int(h.Date>>9) + 1980
	month := time.Month(h.Date >> 5 & 0xf)
	day := int(h.Date & 0x1f)
	hour := int(h.Time >> 11)
	minute := int(h.Time >> 5 & 0x3f)
	second := int(h.Time&0x1f) * 2
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// KeyRecord is the per-region key material: a keyed checksum from which the
// session key is derived, and a confounder consumed to advance the keystream
// before any payload bytes are touched.
type KeyRecord struct {
	Checksum   [20]byte
	Confounder [8]byte
}

// Folder is a parsed folder descriptor together with the extent of the data
// region it owns.
type Folder struct {
	FolderHeader
	Size int64

	key KeyRecord
}

// File is a parsed file entry. Name is the filename as it was decrypted;
// Ordinal is the collision-free name written back into the table in its
// place.
type File struct {
	FileHeader
	Name    string
	Ordinal string
}

// Container is the result of decrypting or parsing a container buffer. It
// carries read-only views of the descriptors; the payload stays in the
// caller's buffer.
type Container struct {
	Header  Header
	Folders []Folder
	Files   []File
}

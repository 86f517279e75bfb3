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
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContainer builds a synthetic encrypted container with the same region
// layout the decryptor expects: header region at 0, key records at the fixed
// offsets, folder table at 0x180, file table at OffsetFiles, folder data
// after that.
type testContainer struct {
	names    []string
	folders  [][]byte
	offFiles uint32
}

func putStruct(t *testing.T, buf []byte, off int64, v interface{}) {
	t.Helper()
	var tmp bytes.Buffer
	require.NoError(t, binary.Write(&tmp, binary.LittleEndian, v))
	copy(buf[off:], tmp.Bytes())
}

func putRecord(t *testing.T, buf []byte, off int64, rec KeyRecord) {
	t.Helper()
	copy(buf[off:], rec.Checksum[:])
	copy(buf[off+20:], rec.Confounder[:])
}

func encryptRegion(t *testing.T, buf, key []byte, rec KeyRecord, off, size int64) {
	t.Helper()
	cipher, err := newRegionCipher(key, rec)
	require.NoError(t, err)
	cipher.decrypt(buf[off : off+size])
}

func (tc testContainer) build(t *testing.T, key []byte) []byte {
	t.Helper()
	offFiles := tc.offFiles
	if offFiles == 0 {
		offFiles = 0x200
	}
	tableLen := int64(0)
	for _, name := range tc.names {
		tableLen += fileHeaderSize + int64(len(name)) + 1
	}
	dataOff := int64(0x300)
	if end := int64(offFiles) + tableLen; tc.offFiles == 0 && end > dataOff {
		dataOff = (end + 0xf) &^ 0xf
	}
	total := dataOff
	for _, data := range tc.folders {
		total += int64(len(data))
	}
	buf := make([]byte, total)

	hdrRec := testRecord(0xa0)
	tableRec := testRecord(0xb0)
	nameRec := testRecord(0xc0)

	putStruct(t, buf, 0, Header{
		Magic:       Magic,
		TotalSize:   uint32(total),
		OffsetFiles: offFiles,
		Version:     0x0103,
		NumFolders:  uint16(len(tc.folders)),
		NumFiles:    uint16(len(tc.names)),
		SetID:       0x1234,
	})
	putRecord(t, buf, folderKeyOffset, tableRec)
	putRecord(t, buf, nameKeyOffset, nameRec)
	putRecord(t, buf, headerKeyOffset, hdrRec)

	// folder table and data blocks
	folderRecs := make([]KeyRecord, len(tc.folders))
	offset := dataOff
	for i, data := range tc.folders {
		entry := int64(folderTableOffset) + int64(i)*folderStride
		putStruct(t, buf, entry, FolderHeader{Offset: uint32(offset), NumData: 1, Compression: 1})
		folderRecs[i] = testRecord(0xd0 + byte(i))
		putRecord(t, buf, entry+folderHeaderSize, folderRecs[i])
		copy(buf[offset:], data)
		offset += int64(len(data))
	}

	// file entries, when they fit inside the buffer
	if int64(offFiles)+tableLen <= total {
		pos := int64(offFiles)
		for i, name := range tc.names {
			putStruct(t, buf, pos, FileHeader{
				UncompressedSize: uint32(100 + i),
				FolderIndex:      0,
				Date:             0x36e9,
				Time:             0x4b15,
				Attributes:       0x20,
			})
			pos += fileHeaderSize
			copy(buf[pos:], name)
			pos += int64(len(name))
			buf[pos] = 0
			pos++
		}
	}

	// encrypt regions innermost first: folder data, file table, folder
	// table, then the header region covering the stored key records
	for i, data := range tc.folders {
		start := int64(binary.LittleEndian.Uint32(buf[folderTableOffset+int64(i)*folderStride:]))
		encryptRegion(t, buf, key, folderRecs[i], start, int64(len(data)))
	}
	if int64(offFiles)+tableLen <= total {
		encryptRegion(t, buf, key, nameRec, int64(offFiles), tableLen)
	}
	encryptRegion(t, buf, key, tableRec, folderTableOffset, int64(len(tc.folders))*folderStride)
	encryptRegion(t, buf, key, hdrRec, 0, headerRegionSize)
	return buf
}

func TestDecrypt(t *testing.T) {
	payload := []byte("hello folder data payload")
	tc := testContainer{
		names:   []string{"abc", "xyz"},
		folders: [][]byte{payload},
	}
	buf := tc.build(t, testKey)
	require.NotEqual(t, []byte("MSCF"), buf[:4])

	container, err := Decrypt(buf, testKey)
	require.NoError(t, err)

	assert.EqualValues(t, Magic, container.Header.Magic)
	assert.EqualValues(t, 1, container.Header.NumFolders)
	assert.EqualValues(t, 2, container.Header.NumFiles)
	assert.Equal(t, []byte("MSCF"), buf[:4])

	require.Len(t, container.Files, 2)
	assert.Equal(t, "abc", container.Files[0].Name)
	assert.Equal(t, "000", container.Files[0].Ordinal)
	assert.Equal(t, "xyz", container.Files[1].Name)
	assert.Equal(t, "001", container.Files[1].Ordinal)
	// the table itself now carries the ordinals
	assert.Equal(t, []byte("000\x00"), buf[0x200+fileHeaderSize:0x200+fileHeaderSize+4])

	require.Len(t, container.Folders, 1)
	start := int64(container.Folders[0].Offset)
	assert.EqualValues(t, len(payload), container.Folders[0].Size)
	assert.Equal(t, payload, buf[start:start+container.Folders[0].Size])
}

func TestDecryptWrongKey(t *testing.T) {
	tc := testContainer{
		names:   []string{"abc", "xyz"},
		folders: [][]byte{[]byte("data")},
	}
	buf := tc.build(t, testKey)
	encrypted := bytes.Clone(buf)

	badKey := bytes.Clone(testKey)
	badKey[0] ^= 1
	_, err := Decrypt(buf, badKey)
	require.ErrorIs(t, err, ErrInvalidKey)
	// only the header region was touched; the tables were never processed
	assert.Equal(t, encrypted[folderTableOffset:], buf[folderTableOffset:])
}

func TestDecryptLongNames(t *testing.T) {
	tc := testContainer{
		names:   []string{"reader.xap", "assets.xap"},
		folders: [][]byte{[]byte("data")},
	}
	buf := tc.build(t, testKey)
	container, err := Decrypt(buf, testKey)
	require.NoError(t, err)
	assert.Equal(t, "reader.xap", container.Files[0].Name)
	assert.Equal(t, "reader.000", container.Files[0].Ordinal)
	assert.Equal(t, "assets.001", container.Files[1].Ordinal)
}

func TestDecryptFolderTiling(t *testing.T) {
	tc := testContainer{
		names:   []string{"abc"},
		folders: [][]byte{bytes.Repeat([]byte{1}, 10), bytes.Repeat([]byte{2}, 20), bytes.Repeat([]byte{3}, 5)},
	}
	buf := tc.build(t, testKey)
	container, err := Decrypt(buf, testKey)
	require.NoError(t, err)
	require.Len(t, container.Folders, 3)
	assert.EqualValues(t, 10, container.Folders[0].Size)
	assert.EqualValues(t, 20, container.Folders[1].Size)
	assert.EqualValues(t, 5, container.Folders[2].Size)
	// regions tile the data area with no gaps
	assert.EqualValues(t, container.Folders[0].Offset+10, container.Folders[1].Offset)
	assert.EqualValues(t, container.Folders[1].Offset+20, container.Folders[2].Offset)
	assert.EqualValues(t, int64(container.Folders[2].Offset)+5, len(buf))
}

func TestDecryptShortBuffer(t *testing.T) {
	var corrupt *CorruptError
	_, err := Decrypt(make([]byte, 0x40), testKey)
	require.ErrorAs(t, err, &corrupt)
}

func TestDecryptTruncatedFileTable(t *testing.T) {
	tc := testContainer{
		names:   []string{"abc"},
		folders: [][]byte{[]byte("data")},
	}
	buf := tc.build(t, testKey)
	// cut the buffer in the middle of the first entry's name scan
	buf = buf[:0x200+fileHeaderSize]
	var corrupt *CorruptError
	_, err := Decrypt(buf, testKey)
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "file table", corrupt.Region)
}

func TestDecryptBadFileOffset(t *testing.T) {
	tc := testContainer{
		names:    []string{"abc"},
		folders:  [][]byte{[]byte("data")},
		offFiles: 0x10000,
	}
	buf := tc.build(t, testKey)
	var corrupt *CorruptError
	_, err := Decrypt(buf, testKey)
	require.ErrorAs(t, err, &corrupt)
}

func TestParse(t *testing.T) {
	tc := testContainer{
		names:   []string{"abc", "xyz"},
		folders: [][]byte{[]byte("data")},
	}
	buf := tc.build(t, testKey)
	_, err := Parse(buf)
	require.ErrorIs(t, err, ErrNotCabinet, "encrypted container must not parse")

	_, err = Decrypt(buf, testKey)
	require.NoError(t, err)

	container, err := Parse(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 2, container.Header.NumFiles)
	require.Len(t, container.Files, 2)
	assert.Equal(t, "000", container.Files[0].Name)
	assert.Equal(t, "001", container.Files[1].Name)
	require.Len(t, container.Folders, 1)
	assert.EqualValues(t, 4, container.Folders[0].Size)
}

func TestFileModified(t *testing.T) {
	h := FileHeader{Date: 0x36e9, Time: 0x4b15}
	// 0x36e9: year 27+1980, month 7, day 9; 0x4b15: 09:24:42
	assert.Equal(t, time.Date(2007, time.July, 9, 9, 24, 42, 0, time.UTC), h.Modified())
}

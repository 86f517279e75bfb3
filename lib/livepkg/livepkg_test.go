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

package livepkg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMembers(t *testing.T, members map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range members {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	return dir
}

func mergeToFile(t *testing.T, dir string) (int64, []byte) {
	t.Helper()
	out, err := os.Create(filepath.Join(t.TempDir(), "merged"))
	require.NoError(t, err)
	defer out.Close()
	total, err := Merge(dir, out)
	require.NoError(t, err)
	data, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	return total, data
}

func TestMerge(t *testing.T) {
	first := bytes.Repeat([]byte{0xaa}, 10)
	second := bytes.Repeat([]byte{0xbb}, 20)
	dir := writeMembers(t, map[string][]byte{"000": first, "001": second})

	total, data := mergeToFile(t, dir)
	// the tag overwrites the leading payload bytes, it does not grow the file
	assert.EqualValues(t, 30, total)
	require.Len(t, data, 30)
	assert.Equal(t, Tag, data[:4])
	assert.Equal(t, first[4:], data[4:10])
	assert.Equal(t, second, data[10:])
}

func TestMergeOrdinalOrder(t *testing.T) {
	dir := writeMembers(t, map[string][]byte{
		"010": []byte("D"),
		"002": []byte("C"),
		"000": []byte("AAAA"),
		"001": []byte("B"),
	})
	_, data := mergeToFile(t, dir)
	assert.Equal(t, []byte("LIVEBCD"), data)
}

func TestMergeLargeMember(t *testing.T) {
	// spans several copy chunks
	big := bytes.Repeat([]byte{0x5a}, 3*4096+123)
	dir := writeMembers(t, map[string][]byte{"000": big})
	total, data := mergeToFile(t, dir)
	assert.EqualValues(t, len(big), total)
	assert.Equal(t, Tag, data[:4])
	assert.Equal(t, big[4:], data[4:])
}

func TestMergeSkipsDirectories(t *testing.T) {
	dir := writeMembers(t, map[string][]byte{"000": []byte("payload")})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	total, _ := mergeToFile(t, dir)
	assert.EqualValues(t, 7, total)
}

func TestMergeEmptyDir(t *testing.T) {
	out, err := os.Create(filepath.Join(t.TempDir(), "merged"))
	require.NoError(t, err)
	defer out.Close()
	_, err = Merge(t.TempDir(), out)
	require.Error(t, err)
}

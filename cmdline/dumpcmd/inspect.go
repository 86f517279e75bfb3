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

package dumpcmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xe-tools/xcpdump/cmdline/shared"
	"github.com/xe-tools/xcpdump/lib/magic"
	"github.com/xe-tools/xcpdump/lib/xcpfile"
)

var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the folders and file entries of a container",
	Long:  "List the folders and file entries of a container. Encrypted inputs need a key and are decrypted on a scratch copy; the file is not modified.",
	RunE:  inspectCmd,
}

func init() {
	shared.RootCmd.AddCommand(InspectCmd)
	addKeyFlags(InspectCmd)
	InspectCmd.Flags().StringVarP(&argFile, "file", "f", "", "Container file to inspect")
}

func inspectCmd(cmd *cobra.Command, args []string) error {
	if argFile == "" {
		return errors.New("--file is required")
	}
	raw, err := os.ReadFile(argFile)
	if err != nil {
		return shared.Fail(err)
	}
	var container *xcpfile.Container
	switch magic.Detect(bytes.NewReader(raw)) {
	case magic.FileTypeCAB:
		container, err = xcpfile.Parse(raw)
	case magic.FileTypeLIVE:
		err = errors.New("input is a finished LIVE package, nothing to inspect")
	default:
		var key []byte
		key, err = resolveKey()
		if err == nil {
			container, err = xcpfile.Decrypt(raw, key)
		}
	}
	if err != nil {
		return shared.Fail(err)
	}
	hdr := container.Header
	fmt.Printf("container: %s\n", argFile)
	fmt.Printf("  version %d, set %d, cabinet %d, %d bytes declared\n", hdr.Version, hdr.SetID, hdr.CabNumber, hdr.TotalSize)
	fmt.Printf("folders: %d\n", hdr.NumFolders)
	for i, folder := range container.Folders {
		fmt.Printf("  %3d: offset=%#x size=%d blocks=%d compression=%d\n",
			i, folder.Offset, folder.Size, folder.NumData, folder.Compression)
	}
	fmt.Printf("files: %d\n", hdr.NumFiles)
	for i, file := range container.Files {
		fmt.Printf("  %3d: %-24s %10d bytes  folder=%d  %s\n",
			i, file.Name, file.UncompressedSize, file.FolderIndex,
			file.Modified().Format("2006-01-02 15:04:05"))
	}
	return nil
}

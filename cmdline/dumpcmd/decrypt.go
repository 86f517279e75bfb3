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
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xe-tools/xcpdump/cmdline/shared"
	"github.com/xe-tools/xcpdump/lib/atomicfile"
	"github.com/xe-tools/xcpdump/lib/magic"
	"github.com/xe-tools/xcpdump/lib/xcpfile"
)

var DecryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt an XCP container into a plain cabinet file",
	RunE:  decryptCmd,
}

func init() {
	shared.RootCmd.AddCommand(DecryptCmd)
	addKeyFlags(DecryptCmd)
	DecryptCmd.Flags().StringVarP(&argFile, "file", "f", "", "Input XCP file")
	DecryptCmd.Flags().StringVarP(&argOutput, "output", "o", "", "Output cabinet file. Defaults to the input path plus .cab")
}

func decryptCmd(cmd *cobra.Command, args []string) error {
	if argFile == "" {
		return errors.New("--file is required")
	}
	key, err := resolveKey()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(argFile)
	if err != nil {
		return shared.Fail(err)
	}
	if magic.Detect(bytes.NewReader(raw)) == magic.FileTypeCAB {
		return shared.Fail(errors.New("input is already a decrypted cabinet"))
	}
	container, err := xcpfile.Decrypt(raw, key)
	if err != nil {
		return shared.Fail(err)
	}
	output := argOutput
	if output == "" {
		output = argFile + ".cab"
	}
	out, err := atomicfile.New(output)
	if err != nil {
		return shared.Fail(err)
	}
	defer out.Close()
	if _, err := out.Write(raw); err != nil {
		return shared.Fail(err)
	}
	if err := out.Commit(); err != nil {
		return shared.Fail(err)
	}
	log.Info().
		Str("output", output).
		Uint16("folders", container.Header.NumFolders).
		Uint16("files", container.Header.NumFiles).
		Msg("wrote plain cabinet")
	return nil
}

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
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xe-tools/xcpdump/cmdline/shared"
	"github.com/xe-tools/xcpdump/lib/atomicfile"
	"github.com/xe-tools/xcpdump/lib/livepkg"
)

var argDir string

var MergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Reassemble an extracted directory into a LIVE package",
	RunE:  mergeCmd,
}

func init() {
	shared.RootCmd.AddCommand(MergeCmd)
	MergeCmd.Flags().StringVarP(&argDir, "dir", "d", "", "Directory of extracted members")
	MergeCmd.Flags().StringVarP(&argOutput, "output", "o", "", "Output package file")
}

func mergeCmd(cmd *cobra.Command, args []string) error {
	if argDir == "" || argOutput == "" {
		return errors.New("--dir and --output are required")
	}
	out, err := atomicfile.New(argOutput)
	if err != nil {
		return shared.Fail(err)
	}
	defer out.Close()
	size, err := livepkg.Merge(argDir, out)
	if err != nil {
		return shared.Fail(err)
	}
	if err := out.Commit(); err != nil {
		return shared.Fail(err)
	}
	log.Info().Str("output", argOutput).Int64("bytes", size).Msg("wrote LIVE package")
	return nil
}

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

// Package dumpcmd implements the commands that take an encrypted XCP
// container through decryption, extraction and reassembly.
package dumpcmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xe-tools/xcpdump/cmdline/shared"
	"github.com/xe-tools/xcpdump/lib/atomicfile"
	"github.com/xe-tools/xcpdump/lib/livepkg"
	"github.com/xe-tools/xcpdump/lib/magic"
	"github.com/xe-tools/xcpdump/lib/xcpfile"
)

var DumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Decrypt an XCP container and rebuild it as a LIVE package",
	RunE:  dumpCmd,
}

func init() {
	shared.RootCmd.AddCommand(DumpCmd)
	addKeyFlags(DumpCmd)
	DumpCmd.Flags().StringVarP(&argFile, "file", "f", "", "Input XCP file")
	DumpCmd.Flags().StringVarP(&argOutput, "output", "o", "", "Output file. Defaults to the input's upper-cased stem, replacing the input.")
	DumpCmd.Flags().BoolVar(&argNoBackup, "no-backup", false, "Do not keep a backup copy of the input")
	DumpCmd.Flags().BoolVar(&argIgnore, "ignore", false, "Skip the overwrite confirmation")
	DumpCmd.Flags().DurationVar(&argTimeout, "timeout", 0, "Deadline for the cabinet extraction tool")
}

func dumpCmd(cmd *cobra.Command, args []string) error {
	if argFile == "" {
		return errors.New("--file is required")
	}
	key, err := resolveKey()
	if err != nil {
		return err
	}
	extractor, err := newExtractor()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(argFile)
	if err != nil {
		return shared.Fail(err)
	}
	switch magic.Detect(bytes.NewReader(raw)) {
	case magic.FileTypeCAB:
		return shared.Fail(errors.New("input is already a decrypted cabinet"))
	case magic.FileTypeLIVE:
		return shared.Fail(errors.New("input is already a LIVE package"))
	}
	output := argOutput
	if output == "" {
		output = filepath.Join(filepath.Dir(argFile), stemUpper(argFile))
	}
	if err := confirmOverwrite(output); err != nil {
		return shared.Fail(err)
	}
	if argNoBackup || !shared.CurrentConfig.BackupEnabled() {
		log.Info().Msg("skipping backup")
	} else {
		bak := filepath.Join(filepath.Dir(argFile), stemUpper(argFile)+".bak")
		log.Info().Str("backup", bak).Msg("backing up the input file")
		if err := copyFile(argFile, bak); err != nil {
			return shared.Fail(err)
		}
	}
	// everything below works on the in-memory copy and scratch files; the
	// input on disk stays intact until the final commit
	workDir, err := os.MkdirTemp("", "xcpdump_"+stemUpper(argFile)+"_")
	if err != nil {
		return shared.Fail(err)
	}
	defer os.RemoveAll(workDir)

	log.Info().Str("file", argFile).Msg("decrypting container")
	container, err := xcpfile.Decrypt(raw, key)
	if err != nil {
		return shared.Fail(err)
	}
	log.Info().
		Uint16("folders", container.Header.NumFolders).
		Uint16("files", container.Header.NumFiles).
		Msg("key appears to be OK")

	cabPath := filepath.Join(workDir, "tmp.cab")
	if err := os.WriteFile(cabPath, raw, 0600); err != nil {
		return shared.Fail(err)
	}
	cacheDir := filepath.Join(workDir, "cache")
	if err := os.Mkdir(cacheDir, 0700); err != nil {
		return shared.Fail(err)
	}
	log.Info().Msg("extracting cabinet")
	if err := extractor.Extract(cmd.Context(), cabPath, cacheDir); err != nil {
		return shared.Fail(err)
	}

	log.Info().Msg("merging extracted members")
	out, err := atomicfile.New(output)
	if err != nil {
		return shared.Fail(err)
	}
	defer out.Close()
	size, err := livepkg.Merge(cacheDir, out)
	if err != nil {
		return shared.Fail(err)
	}
	if err := out.Commit(); err != nil {
		return shared.Fail(err)
	}
	// the original container was consumed; drop it unless it became the output
	if output != argFile {
		if err := os.Remove(argFile); err != nil {
			return shared.Fail(err)
		}
	}
	log.Info().Str("output", output).Int64("bytes", size).Msg("wrote LIVE package")
	return nil
}

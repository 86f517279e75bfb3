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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xe-tools/xcpdump/cmdline/shared"
	"github.com/xe-tools/xcpdump/lib/cabextract"
	"github.com/xe-tools/xcpdump/lib/xcpfile"
)

var (
	argFile     string
	argKey      string
	argKeyName  string
	argOutput   string
	argNoBackup bool
	argIgnore   bool
	argTimeout  time.Duration
)

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&argKey, "key", "k", "", "Master key, hex-encoded or raw")
	cmd.Flags().StringVarP(&argKeyName, "key-name", "K", "", "Name of key in config file to use")
}

// resolveKey picks the master key from --key, the config file, or an
// interactive prompt, in that order.
func resolveKey() ([]byte, error) {
	if argKey != "" {
		return xcpfile.ParseKey(argKey)
	}
	if argKeyName != "" {
		if err := shared.InitConfig(); err != nil {
			return nil, err
		}
		key, err := shared.CurrentConfig.GetKey(argKeyName)
		if err != nil {
			return nil, err
		}
		return xcpfile.ParseKey(key)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Master key: ")
		key, err := gopass.GetPasswd()
		if err != nil {
			return nil, err
		}
		return xcpfile.ParseKey(string(key))
	}
	return nil, errors.New("no key given: use --key or --key-name")
}

// newExtractor builds the cabinet extractor from the config file, with the
// platform default as fallback. --timeout overrides the configured deadline.
func newExtractor() (cabextract.Extractor, error) {
	if err := shared.InitConfig(); err != nil {
		return nil, err
	}
	conf := shared.CurrentConfig
	timeout := conf.ExtractTimeout()
	if argTimeout != 0 {
		timeout = argTimeout
	}
	if conf.Extractor != nil && len(conf.Extractor.Command) != 0 {
		return cabextract.New(conf.Extractor.Command, timeout), nil
	}
	return cabextract.Default(timeout), nil
}

// confirmOverwrite asks before the input file is destroyed. Non-interactive
// runs must pass --ignore explicitly.
func confirmOverwrite(path string) error {
	if argIgnore {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("refusing to overwrite without a terminal; pass --ignore to proceed")
	}
	fmt.Fprintf(os.Stderr, "This will OVERWRITE %s, press ENTER to continue or Ctrl-C to abort...", path)
	_, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return err
}

// stemUpper mirrors the conventional output naming: the input's base name
// without extension, upper-cased.
func stemUpper(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

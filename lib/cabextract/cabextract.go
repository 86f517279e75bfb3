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

// Package cabextract unpacks plain cabinet archives by driving the
// platform's native extraction tool as a subprocess.
package cabextract

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/xe-tools/xcpdump/lib/procutil"
)

// Extractor populates destDir with one file per member of the archive.
type Extractor interface {
	Extract(ctx context.Context, archive, destDir string) error
}

// ExtractError carries the tool's combined output so failures can be
// diagnosed without re-running it.
type ExtractError struct {
	Cmdline string
	Output  string
	Err     error
}

func (e *ExtractError) Error() string {
	msg := fmt.Sprintf("extracting cabinet: %s: %s", e.Cmdline, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Placeholders substituted into the command template.
const (
	SrcToken  = "{src}"
	DestToken = "{dest}"
)

type commandExtractor struct {
	argv    []string
	timeout time.Duration
}

// New builds an Extractor from a command template in which SrcToken and
// DestToken are replaced with the archive and destination paths.
func New(argv []string, timeout time.Duration) Extractor {
	return &commandExtractor{argv: argv, timeout: timeout}
}

// Default returns the platform's stock cabinet extractor: expand on Windows,
// cabextract everywhere else.
func Default(timeout time.Duration) Extractor {
	if runtime.GOOS == "windows" {
		return New([]string{"expand", SrcToken, "-F:*", DestToken}, timeout)
	}
	return New([]string{"cabextract", "-d", DestToken, "-F", "*", SrcToken}, timeout)
}

func (x *commandExtractor) Extract(ctx context.Context, archive, destDir string) error {
	cmdline := make([]string, len(x.argv))
	for i, word := range x.argv {
		word = strings.ReplaceAll(word, SrcToken, archive)
		word = strings.ReplaceAll(word, DestToken, destDir)
		cmdline[i] = word
	}
	proc := procutil.CommandContext(ctx, cmdline, x.timeout)
	if err := proc.Run(); err != nil {
		return &ExtractError{Cmdline: proc.FormatCmdline(), Output: proc.Output, Err: err}
	}
	return nil
}

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

// Package procutil runs external helper tools with a hard deadline and
// captures their combined output for diagnostics.
package procutil

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

type Command struct {
	Proc   *exec.Cmd
	Output string

	ctx    context.Context
	cancel context.CancelFunc
	stdio  *bytes.Buffer
}

// CommandContext prepares to launch a subprocess with the given command-line.
// The process is terminated when ctx is cancelled or timeout elapses.
func CommandContext(ctx context.Context, cmdline []string, timeout time.Duration) *Command {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	proc := exec.CommandContext(ctx, cmdline[0], cmdline[1:]...)
	stdio := new(bytes.Buffer)
	proc.Stdout = stdio
	proc.Stderr = stdio
	return &Command{
		ctx:    ctx,
		Proc:   proc,
		stdio:  stdio,
		cancel: cancel,
	}
}

// Run the subprocess and wait for it to complete. Whatever the process wrote
// to stdout or stderr is available in Output afterwards, also on failure.
func (c *Command) Run() error {
	defer c.cancel()
	err := c.Proc.Run()
	c.Output = c.stdio.String()
	if err != nil {
		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		default:
			return err
		}
	}
	return nil
}

func (c *Command) FormatCmdline() string {
	words := make([]string, len(c.Proc.Args))
	for i, word := range c.Proc.Args {
		if strings.Contains(word, " ") {
			word = "\"" + word + "\""
		}
		words[i] = word
	}
	return strings.Join(words, " ")
}

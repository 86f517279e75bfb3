/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shared

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xe-tools/xcpdump/config"
)

var ArgConfig string
var CurrentConfig *config.Config

var (
	argVersion  bool
	argLogLevel string
)

var RootCmd = &cobra.Command{
	Use:               "xcpdump",
	Short:             "Decrypt XCP content packages and rebuild them as LIVE packages",
	PersistentPreRunE: setup,
	RunE:              bailUnlessVersion,
	SilenceUsage:      true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&ArgConfig, "config", "c", "", "Configuration file")
	RootCmd.PersistentFlags().BoolVar(&argVersion, "version", false, "Show version and exit")
	RootCmd.PersistentFlags().StringVar(&argLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func setup(cmd *cobra.Command, args []string) error {
	if argVersion {
		fmt.Printf("xcpdump version %s\n", config.Version)
		os.Exit(0)
	}
	return SetupLogging(argLogLevel)
}

func bailUnlessVersion(cmd *cobra.Command, args []string) error {
	if !argVersion {
		return errors.New("expected a command")
	}
	return nil
}

// SetupLogging points the global logger at stderr with a console writer and
// applies the requested level.
func SetupLogging(levelName string) error {
	log.Logger = log.Logger.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	log.Logger = log.Logger.Level(level)
	return nil
}

func Main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

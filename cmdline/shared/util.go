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
	"fmt"
	"os"

	"github.com/xe-tools/xcpdump/config"
)

// InitConfig loads the config file named by --config, falling back to the
// per-user default. A missing default is not an error; the tool works with
// flags alone.
func InitConfig() error {
	if CurrentConfig != nil {
		return nil
	}
	usedDefault := false
	path := ArgConfig
	if path == "" {
		path = config.DefaultConfig()
		usedDefault = true
	}
	if path == "" {
		CurrentConfig = new(config.Config)
		return nil
	}
	conf, err := config.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && usedDefault {
			CurrentConfig = new(config.Config)
			return nil
		}
		return err
	}
	CurrentConfig = conf
	return nil
}

func Fail(err error) error {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(70)
	}
	return err
}

/*
 * Copyright 2024-2025 by Procwatch Authors
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package app

import (
	"fmt"
	"os"

	"github.com/procwatch/procwatch/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective config",
	RunE:  printConfig,
}

// the config command options
var configCmdCfg = config.NewWithOpts(config.WithList())

func init() {
	configCmdCfg.MustViperize(configCmd)
}

func printConfig(cmd *cobra.Command, args []string) error {
	if err := initConfigAndLogger(configCmdCfg); err != nil {
		return err
	}
	_, err := fmt.Fprintln(os.Stdout, configCmdCfg.Print())
	return err
}

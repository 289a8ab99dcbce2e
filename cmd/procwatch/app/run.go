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
	"github.com/procwatch/procwatch/pkg/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Start the process creation tracer",
	Aliases: []string{"start"},
	RunE:    run,
	Example: `
	# Run with default settings
	procwatch run

	# Run with the JSON output format
	procwatch run --output.console.format=json
	`,
}

// the run command config
var cfg = config.NewWithOpts(config.WithRun())

func init() {
	cfg.MustViperize(runCmd)
}

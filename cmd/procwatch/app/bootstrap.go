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
	"os"

	"github.com/procwatch/procwatch/pkg/config"
	"github.com/procwatch/procwatch/pkg/util/log"
)

// initConfigAndLogger loads the optional config file, initializes the
// configuration state, and sets up the logger.
func initConfigAndLogger(cfg *config.Config) error {
	if _, err := os.Stat(cfg.File()); err == nil {
		if err := cfg.TryLoadFile(cfg.File()); err != nil {
			return err
		}
	}
	if err := cfg.Init(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return log.InitFromConfig(cfg.Log)
}

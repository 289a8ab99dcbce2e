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

package console

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	frmt = "output.console.format"
	tmpl = "output.console.template"
)

// Config contains the tweaks that influence the behaviour of the console output.
type Config struct {
	// Format specifies the output format (pretty | json).
	Format string `json:"output.console.format" yaml:"output.console.format"`
	// Template overrides the default line template in pretty rendering mode.
	Template string `json:"output.console.template" yaml:"output.console.template"`
}

// InitFromViper initializes console output settings from Viper.
func (c *Config) InitFromViper(v *viper.Viper) {
	c.Format = v.GetString(frmt)
	c.Template = v.GetString(tmpl)
}

// AddFlags registers persistent console output flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(frmt, string(pretty), "Specifies the output format. Choose between pretty|json")
	flags.String(tmpl, "", "Event formatting template")
}

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

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Print returns all effective config options rendered as a table, with
// nested sections flattened into dotted keys.
func (c *Config) Print() string {
	opts := make(map[string]interface{})
	flatten("", c.viper.AllSettings(), opts)

	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Option", "Value"})
	for _, key := range keys {
		t.AppendRow(table.Row{key, fmt.Sprintf("%v", opts[key])})
	}
	t.SetStyle(table.StyleLight)

	return t.Render()
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for key, value := range in {
		name := key
		if prefix != "" {
			name = strings.Join([]string{prefix, key}, ".")
		}
		if nested, ok := value.(map[string]interface{}); ok {
			flatten(name, nested, out)
			continue
		}
		out[name] = value
	}
}

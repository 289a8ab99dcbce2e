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
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/procwatch/procwatch/pkg/pevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent() *pevent.ProcessStart {
	return &pevent.ProcessStart{
		ProcessID:     6284,
		ParentID:      2324,
		SessionID:     1,
		ImageFileName: "firefox.exe",
		CommandLine:   `C:\Program Files\Firefox\firefox.exe`,
		Timestamp:     time.Date(2024, 11, 5, 10, 15, 0, 0, time.UTC),
	}
}

func TestConsolePublishPretty(t *testing.T) {
	var buf bytes.Buffer
	c, err := newConsole(&buf, Config{Format: "pretty"})
	require.NoError(t, err)

	require.NoError(t, c.Publish(newEvent()))
	out := buf.String()
	assert.Contains(t, out, "pid=6284")
	assert.Contains(t, out, "image=firefox.exe")
	assert.True(t, out[len(out)-1] == '\n')
}

func TestConsolePublishJSON(t *testing.T) {
	var buf bytes.Buffer
	c, err := newConsole(&buf, Config{Format: "json"})
	require.NoError(t, err)

	require.NoError(t, c.Publish(newEvent()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(6284), decoded["pid"])
	assert.Equal(t, "firefox.exe", decoded["image_file_name"])
}

func TestConsoleCustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	c, err := newConsole(&buf, Config{Format: "pretty", Template: "{{ .ProcessID }}|{{ .CommandLine }}"})
	require.NoError(t, err)

	require.NoError(t, c.Publish(newEvent()))
	assert.Equal(t, "6284|C:\\Program Files\\Firefox\\firefox.exe\n", buf.String())
}

func TestConsoleInvalidFormat(t *testing.T) {
	_, err := newConsole(&bytes.Buffer{}, Config{Format: "xml"})
	require.Error(t, err)
}

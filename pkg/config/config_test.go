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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := NewWithOpts(WithRun())
	c.MustViperize(&cobra.Command{})
	require.NoError(t, c.Init())

	assert.Equal(t, defaultSessionName, c.Trace.SessionName)
	assert.Equal(t, defaultBufferSize, c.Trace.BufferSize)
	assert.Equal(t, defaultMinBuffers, c.Trace.MinBuffers)
	assert.Equal(t, defaultMaxBuffers, c.Trace.MaxBuffers)
	assert.Equal(t, time.Second, c.Trace.FlushTimer)
	assert.False(t, c.Trace.EnableThreadEvents)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "pretty", c.Output.Format)
	require.NoError(t, c.Validate())
}

func TestConfigLoadFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "procwatch.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
trace:
  buffer-size: 1024
  min-buffers: 4
  max-buffers: 16
  enable-thread: true
logging:
  level: debug
output:
  console:
    format: json
`), 0o644))

	c := NewWithOpts(WithRun())
	c.MustViperize(&cobra.Command{})
	require.NoError(t, c.TryLoadFile(file))
	require.NoError(t, c.Init())

	assert.Equal(t, uint32(1024), c.Trace.BufferSize)
	assert.Equal(t, uint32(4), c.Trace.MinBuffers)
	assert.Equal(t, uint32(16), c.Trace.MaxBuffers)
	assert.True(t, c.Trace.EnableThreadEvents)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Output.Format)
}

func TestConfigValidate(t *testing.T) {
	c := NewWithOpts(WithRun())
	c.MustViperize(&cobra.Command{})
	require.NoError(t, c.Init())

	c.Trace.MinBuffers = 64
	c.Trace.MaxBuffers = 32
	require.Error(t, c.Validate())

	c.Trace.MinBuffers = 8
	c.Trace.MaxBuffers = 32
	c.Output.Format = "xml"
	require.Error(t, c.Validate())

	c.Output.Format = "json"
	require.NoError(t, c.Validate())
}

func TestConfigPrint(t *testing.T) {
	c := NewWithOpts(WithRun())
	c.MustViperize(&cobra.Command{})
	require.NoError(t, c.Init())

	out := c.Print()
	assert.Contains(t, out, "trace.session-name")
	assert.Contains(t, out, defaultSessionName)
}

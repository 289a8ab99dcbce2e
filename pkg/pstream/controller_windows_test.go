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

package pstream

import (
	"runtime"
	"testing"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/procwatch/procwatch/pkg/config"
	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTraceConfig() config.TraceConfig {
	return config.TraceConfig{
		SessionName: etw.KernelLoggerSession,
		BufferSize:  1024,
		MinBuffers:  uint32(runtime.NumCPU() * 2),
		MaxBuffers:  uint32(runtime.NumCPU()*2 + 20),
		FlushTimer:  time.Second,
	}
}

func TestControllerStart(t *testing.T) {
	var gotProps *etw.EventTraceProperties
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		gotProps = props.Properties()
		return etw.TraceHandle(2), nil
	}

	c := NewController(newTraceConfig())
	require.NoError(t, c.Start())
	require.NotNil(t, gotProps)

	assert.True(t, c.Handle().IsValid())
	assert.Equal(t, uint32(unsafe.Sizeof(etw.EventTraceProperties{})), gotProps.LoggerNameOffset)
	assert.Equal(t, uint32(etw.EventTraceRealTimeMode|etw.EventTraceSystemLoggerMode), gotProps.LogFileMode)
	assert.Equal(t, etw.Process, gotProps.EnableFlags&etw.Process)
	assert.Equal(t, etw.KernelTraceControlGUID, gotProps.Wnode.GUID)
	assert.Equal(t, uint32(1), gotProps.FlushTimer)
	assert.Equal(t, uint32(1024), gotProps.BufferSize)
}

func TestControllerStartClampsBuffers(t *testing.T) {
	var gotProps *etw.EventTraceProperties
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		gotProps = props.Properties()
		return etw.TraceHandle(2), nil
	}

	cfg := newTraceConfig()
	cfg.BufferSize = 8192
	cfg.MinBuffers = 0
	cfg.MaxBuffers = 1024
	cfg.FlushTimer = 0

	c := NewController(cfg)
	require.NoError(t, c.Start())

	minBuffers := uint32(runtime.NumCPU() * 2)
	assert.Equal(t, uint32(maxBufferSize), gotProps.BufferSize)
	assert.Equal(t, minBuffers, gotProps.MinimumBuffers)
	assert.Equal(t, minBuffers+20, gotProps.MaximumBuffers)
	assert.Equal(t, uint32(1), gotProps.FlushTimer)
}

func TestControllerStartRetriesOnUnknownStatus(t *testing.T) {
	var calls int
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		calls++
		if calls == 1 {
			return etw.TraceHandle(0), errors.New("status 0xdeadbeef")
		}
		return etw.TraceHandle(2), nil
	}

	c := NewController(newTraceConfig())
	require.NoError(t, c.Start())
	assert.Equal(t, 2, calls)
}

func TestControllerStartAccessDeniedIsPermanent(t *testing.T) {
	var calls int
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		calls++
		return etw.TraceHandle(0), kerrors.ErrTraceAccessDenied
	}

	c := NewController(newTraceConfig())
	require.ErrorIs(t, c.Start(), kerrors.ErrTraceAccessDenied)
	assert.Equal(t, 1, calls)
}

func TestControllerStartRestartsRunningSession(t *testing.T) {
	var startCalls int
	var controlOps []etw.TraceOperation
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		startCalls++
		if startCalls == 1 {
			return etw.TraceHandle(0), kerrors.ErrTraceAlreadyRunning
		}
		return etw.TraceHandle(2), nil
	}
	controlTrace = func(handle etw.TraceHandle, props *etw.SessionProperties, op etw.TraceOperation) error {
		controlOps = append(controlOps, op)
		return nil
	}

	c := NewController(newTraceConfig())
	require.NoError(t, c.Start())

	assert.Equal(t, 2, startCalls)
	assert.Equal(t, []etw.TraceOperation{etw.Query, etw.Stop}, controlOps)
	assert.True(t, c.Handle().IsValid())
}

func TestControllerStopIsIdempotent(t *testing.T) {
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		return etw.TraceHandle(2), nil
	}
	var stops int
	controlTrace = func(handle etw.TraceHandle, props *etw.SessionProperties, op etw.TraceOperation) error {
		if op == etw.Stop {
			stops++
		}
		return nil
	}

	c := NewController(newTraceConfig())
	require.NoError(t, c.Start())

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	assert.Equal(t, 1, stops)
	assert.False(t, c.Handle().IsValid())
}

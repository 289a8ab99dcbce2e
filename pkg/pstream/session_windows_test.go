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

	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/pevent"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/sys/tdh"
	"github.com/procwatch/procwatch/pkg/util/cancel"
	"github.com/procwatch/procwatch/pkg/util/utf16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestConsumerFiltersForeignOpcodes(t *testing.T) {
	var resolutions int
	getEventInformation = func(evt *etw.EventRecord) (*tdh.EventInfo, error) {
		resolutions++
		return nil, assert.AnError
	}

	c := NewConsumer(newTraceConfig(), cancel.NewToken())

	// process exit events and empty payloads are dismissed
	// before any schema resolution takes place
	payload := make([]byte, 8)
	require.NoError(t, c.processEvent(newProcessStartRecord(payload, 2)))
	require.NoError(t, c.processEvent(newProcessStartRecord(nil, processStartOpcode)))
	assert.Equal(t, 0, resolutions)

	require.Error(t, c.processEvent(newProcessStartRecord(payload, processStartOpcode)))
	assert.Equal(t, 1, resolutions)
}

func TestConsumerBufferCallbackHonorsCancellation(t *testing.T) {
	token := cancel.NewToken()
	c := NewConsumer(newTraceConfig(), token)

	logfile := etw.NewEventTraceLogfile(etw.KernelLoggerSession)
	assert.Equal(t, callbackNext, c.bufferCallback(&logfile))

	// a token set before the first buffer stops the pump right away
	token.Set()
	assert.Equal(t, uintptr(0), c.bufferCallback(&logfile))
}

func TestConsumerRunTreatsCancellationAsTermination(t *testing.T) {
	processTrace = func(handle etw.TraceHandle, startTime *windows.Filetime) error {
		return kerrors.ErrTraceCancelled
	}
	c := NewConsumer(newTraceConfig(), cancel.NewToken())
	require.NoError(t, c.Run())

	processTrace = func(handle etw.TraceHandle, startTime *windows.Filetime) error {
		return kerrors.ErrTraceBadHandleCount
	}
	require.ErrorIs(t, c.Run(), kerrors.ErrTraceBadHandleCount)
}

func TestConsumerEventDeliveryAfterCancellation(t *testing.T) {
	info := newEventInfo("ProcessId")
	getEventInformation = func(evt *etw.EventRecord) (*tdh.EventInfo, error) {
		return info, nil
	}
	formatProperty = func(info *tdh.EventInfo, prop *tdh.EventPropertyInfo, pointerSize uint32, data []byte) ([]uint16, uint16, error) {
		return utf16.Encode("4716"), 8, nil
	}

	token := cancel.NewToken()
	c := NewConsumer(newTraceConfig(), token)
	for len(c.events) < cap(c.events) {
		c.events <- &pevent.ProcessStart{}
	}
	token.Set()

	// with the channel full and nobody draining it, the send must not
	// block the pump thread after the cancellation is requested
	payload := make([]byte, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.processEvent(newProcessStartRecord(payload, processStartOpcode))
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.FailNow(t, "event send blocked the pump after cancellation")
	}
	runtime.KeepAlive(payload)
	assert.Equal(t, cap(c.events), len(c.events))
}

func TestConsumerCloseIsIdempotent(t *testing.T) {
	var closes int
	closeTrace = func(handle etw.TraceHandle) error {
		closes++
		return nil
	}
	c := NewConsumer(newTraceConfig(), cancel.NewToken())
	c.handle = etw.TraceHandle(2)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, closes)
}

func TestSessionShutdownOrder(t *testing.T) {
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		return etw.TraceHandle(2), nil
	}
	openTrace = func(logfile *etw.EventTraceLogfile) etw.TraceHandle {
		return etw.TraceHandle(3)
	}
	processTrace = func(handle etw.TraceHandle, startTime *windows.Filetime) error {
		return nil
	}

	s := NewSession(newTraceConfig())

	var order []string
	controlTrace = func(handle etw.TraceHandle, props *etw.SessionProperties, op etw.TraceOperation) error {
		switch op {
		case etw.Flush:
			// buffered events must reach the pump before the session goes away
			order = append(order, "flush")
		case etw.Stop:
			order = append(order, "stop")
			// the pump must not observe the cancellation
			// before the session is stopped
			assert.False(t, s.token.Requested())
		}
		return nil
	}
	closeTrace = func(handle etw.TraceHandle) error {
		order = append(order, "close")
		assert.True(t, s.token.Requested())
		return nil
	}

	require.NoError(t, s.Start())
	s.Shutdown()

	assert.Equal(t, []string{"flush", "stop", "close"}, order)
}

func TestSessionStartStopsOrphanedSession(t *testing.T) {
	startTrace = func(props *etw.SessionProperties) (etw.TraceHandle, error) {
		return etw.TraceHandle(2), nil
	}
	openTrace = func(logfile *etw.EventTraceLogfile) etw.TraceHandle {
		return etw.TraceHandle(0)
	}
	var stops int
	controlTrace = func(handle etw.TraceHandle, props *etw.SessionProperties, op etw.TraceOperation) error {
		if op == etw.Stop {
			stops++
		}
		return nil
	}

	s := NewSession(newTraceConfig())
	require.ErrorIs(t, s.Start(), kerrors.ErrInvalidTrace)
	assert.Equal(t, 1, stops)
}

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
	"fmt"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/procwatch/procwatch/pkg/config"
	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

const (
	// maxBufferSize specifies the maximum size, in kilobytes, for the event tracing session buffer
	maxBufferSize = 1024
	// etwMaxLoggersPath is the registry subkey that contains ETW logger preferences
	etwMaxLoggersPath = `SYSTEM\CurrentControlSet\Control\WMI`
	// etwMaxLoggersValue is the registry value that dictates the maximum number of loggers. Default value is 64 on most systems
	etwMaxLoggersValue = "EtwMaxLoggers"
)

// for testing purposes
var (
	startTrace   = etw.StartTrace
	controlTrace = etw.ControlTrace
)

// Controller is responsible for the life cycle of the kernel logger
// session. It registers the session with the process provider enabled,
// keeps the properties block alive for control operations, and disposes
// the session on stop.
type Controller struct {
	config config.TraceConfig
	props  *etw.SessionProperties
	handle etw.TraceHandle
}

// NewController builds the controller for the kernel logger session with
// the specified configuration.
func NewController(config config.TraceConfig) *Controller {
	return &Controller{config: config}
}

// Start registers and starts the kernel logger session. Transient start
// failures whose status is not covered by the error taxonomy are retried
// once before giving up. If a session with the same name is already
// running, it is stopped and the start attempted anew.
func (c *Controller) Start() error {
	props, err := c.buildProperties()
	if err != nil {
		return err
	}
	c.props = props

	start := func() error {
		handle, err := startTrace(c.props)
		if err != nil {
			switch err {
			case kerrors.ErrTraceAlreadyRunning,
				kerrors.ErrTraceAccessDenied,
				kerrors.ErrTraceBadLength,
				kerrors.ErrTraceInvalidParameter,
				kerrors.ErrTraceBadPathname,
				kerrors.ErrTraceDiskFull,
				kerrors.ErrTraceNoSysResources:
				return backoff.Permanent(err)
			}
			log.Warnf("unable to start trace [%s]: %v", c.config.SessionName, err)
			return err
		}
		if !handle.IsValid() {
			return backoff.Permanent(kerrors.ErrInvalidTrace)
		}
		c.handle = handle
		return nil
	}

	err = backoff.Retry(start, backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 1))

	switch err {
	case nil:
		log.Debugf("started trace [%s] with %q event flags", c.config.SessionName, c.props.Properties().EnableFlags)
		return nil
	case kerrors.ErrTraceAlreadyRunning:
		log.Warnf("trace [%s] is already running. Trying to restart", c.config.SessionName)
		if err := controlTrace(etw.TraceHandle(0), c.props, etw.Query); err == kerrors.ErrSessionNotRunning {
			return kerrors.ErrCannotUpdateTrace
		}
		if err := controlTrace(etw.TraceHandle(0), c.props, etw.Stop); err != nil {
			return kerrors.ErrStopTrace
		}
		time.Sleep(time.Millisecond * 100)
		// the stopped session invalidated the properties block
		props, err := c.buildProperties()
		if err != nil {
			return err
		}
		c.props = props
		handle, err := startTrace(c.props)
		if err != nil {
			return kerrors.ErrRestartTrace
		}
		if !handle.IsValid() {
			return kerrors.ErrInvalidTrace
		}
		c.handle = handle
		return nil
	case kerrors.ErrTraceNoSysResources:
		// get the number of maximum allowed loggers from registry
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, etwMaxLoggersPath, registry.QUERY_VALUE)
		if err != nil {
			return err
		}
		defer key.Close()
		v, _, err := key.GetIntegerValue(etwMaxLoggersValue)
		if err != nil {
			return err
		}
		return fmt.Errorf(`the limit for logging sessions on your system is %d. Please consider increasing this number `+
			`by editing HKEY_LOCAL_MACHINE\%s\%s key in registry. `+
			`Permissible values are 32 through 256 inclusive, and a reboot is required for any change to take effect`,
			v, etwMaxLoggersPath, etwMaxLoggersValue)
	default:
		return err
	}
}

// Flush forces the session to deliver all buffered events to the consumer.
func (c *Controller) Flush() error {
	if !c.handle.IsValid() {
		return nil
	}
	return controlTrace(c.handle, c.props, etw.Flush)
}

// Stop disposes the kernel logger session. Stopping an already stopped
// controller is a no-op, so the method can run unconditionally on every
// teardown path.
func (c *Controller) Stop() error {
	if !c.handle.IsValid() {
		return nil
	}
	err := controlTrace(c.handle, c.props, etw.Stop)
	c.handle = etw.TraceHandle(0)
	if err != nil {
		return err
	}
	log.Debugf("stopped trace [%s]", c.config.SessionName)
	return nil
}

// Handle returns the handle of the running session.
func (c *Controller) Handle() etw.TraceHandle { return c.handle }

// buildProperties derives the session properties block from the trace
// configuration, clamping buffer settings to the ranges the session
// accepts.
func (c *Controller) buildProperties() (*etw.SessionProperties, error) {
	sessionProps, err := etw.NewSessionProperties(c.config.SessionName)
	if err != nil {
		return nil, err
	}

	flags := etw.Process
	if c.config.EnableThreadEvents {
		flags |= etw.Thread
	}
	if c.config.EnableImageEvents {
		flags |= etw.ImageLoad
	}
	if c.config.EnableNetEvents {
		flags |= etw.NetTCPIP
	}
	if c.config.EnableRegistryEvents {
		flags |= etw.Registry
	}

	bufferSize := c.config.BufferSize
	if bufferSize > maxBufferSize {
		bufferSize = maxBufferSize
	}
	// the minimal number of buffers is 2 per CPU logical core
	minBuffers := c.config.MinBuffers
	if minBuffers < uint32(runtime.NumCPU()*2) {
		minBuffers = uint32(runtime.NumCPU() * 2)
	}
	maxBuffers := c.config.MaxBuffers
	maxBuffersAllowed := minBuffers + 20
	if maxBuffers > maxBuffersAllowed {
		maxBuffers = maxBuffersAllowed
	}
	if minBuffers > maxBuffers {
		minBuffers = maxBuffers
	}

	flushTimer := c.config.FlushTimer
	if flushTimer < time.Second {
		flushTimer = time.Second
	}

	props := sessionProps.Properties()
	props.Wnode.GUID = etw.KernelTraceControlGUID
	props.BufferSize = bufferSize
	props.MinimumBuffers = minBuffers
	props.MaximumBuffers = maxBuffers
	props.FlushTimer = uint32(flushTimer.Seconds())
	props.LogFileMode = etw.EventTraceRealTimeMode | etw.EventTraceSystemLoggerMode
	props.EnableFlags = flags

	return sessionProps, nil
}

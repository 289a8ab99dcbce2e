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
	"expvar"
	"time"

	"github.com/procwatch/procwatch/pkg/config"
	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/pevent"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/util/cancel"
	"github.com/procwatch/procwatch/pkg/util/filetime"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

const (
	// callbackNext instructs the pump to keep delivering events and buffers
	callbackNext = uintptr(1)
	// processStartOpcode identifies process creation events among the
	// process lifecycle variants published by the kernel provider
	processStartOpcode = uint8(1)

	eventBufferSize = 500
	errorBufferSize = 100
)

var (
	// eventsProcessed counts the number of decoded process start events
	eventsProcessed = expvar.NewInt("pstream.events.processed")
	// eventsFiltered counts the events dismissed before schema resolution
	eventsFiltered = expvar.NewInt("pstream.events.filtered")
	// eventsDropped counts the events skipped due to decoding failures
	eventsDropped = expvar.NewInt("pstream.events.dropped")
	// buffersRead counts the session buffers drained by the pump
	buffersRead = expvar.NewInt("pstream.buffers.read")
)

// for testing purposes
var (
	openTrace    = etw.OpenTrace
	processTrace = etw.ProcessTrace
	closeTrace   = etw.CloseTrace
)

// Consumer opens the real-time session for processing and pumps decoded
// process start events through its channel. The pump delivers events on
// an internal thread owned by the tracing infrastructure, so the consumer
// never shares mutable state with its callbacks apart from the
// cancellation token.
type Consumer struct {
	handle    etw.TraceHandle
	config    config.TraceConfig
	token     *cancel.Token
	projector *projector
	startTime windows.Filetime

	events chan *pevent.ProcessStart
	errs   chan error
}

// NewConsumer constructs the consumer attached to the given cancellation
// token. Setting the token stops the pump at the next buffer checkpoint.
func NewConsumer(config config.TraceConfig, token *cancel.Token) *Consumer {
	return &Consumer{
		config:    config,
		token:     token,
		projector: newProjector(),
		events:    make(chan *pevent.ProcessStart, eventBufferSize),
		errs:      make(chan error, errorBufferSize),
	}
}

// Open connects the consumer to the real-time session. Events recorded
// before this call are not delivered to the callbacks.
func (c *Consumer) Open() error {
	now := filetime.FromTime(time.Now())
	c.startTime = windows.Filetime{
		LowDateTime:  uint32(now & 0xffffffff),
		HighDateTime: uint32(now >> 32),
	}

	logfile := etw.NewEventTraceLogfile(c.config.SessionName)
	logfile.SetModes(etw.ProcessTraceModeRealtime | etw.ProcessTraceModeEventRecord)
	logfile.SetEventCallback(windows.NewCallback(c.processEventCallback))
	logfile.SetBufferCallback(windows.NewCallback(c.bufferCallback))

	c.handle = openTrace(&logfile)
	if !c.handle.IsValid() {
		return kerrors.ErrInvalidTrace
	}
	log.Debugf("opened trace [%s] for event consumption", c.config.SessionName)
	return nil
}

// Run drives the event pump. The call blocks the current goroutine until
// the pump drains all buffers after a cancellation request, the trace
// handle is closed, or event delivery fails. Consumer-initiated
// cancellation counts as a regular termination.
func (c *Consumer) Run() error {
	err := processTrace(c.handle, &c.startTime)
	if err == kerrors.ErrTraceCancelled {
		return nil
	}
	return err
}

// Events returns the channel with decoded process start events.
func (c *Consumer) Events() <-chan *pevent.ProcessStart { return c.events }

// Errors returns the channel with event processing errors.
func (c *Consumer) Errors() <-chan error { return c.errs }

// Close disposes the trace processing handle. Closing an already closed
// consumer is a no-op.
func (c *Consumer) Close() error {
	if !c.handle.IsValid() {
		return nil
	}
	err := closeTrace(c.handle)
	c.handle = etw.TraceHandle(0)
	return err
}

// bufferCallback runs after all events in a flushed buffer are delivered.
// Returning zero tells the pump to stop after the current buffer, which
// makes the buffer checkpoint the cancellation point of the consumer.
func (c *Consumer) bufferCallback(logfile *etw.EventTraceLogfile) uintptr {
	buffersRead.Add(1)
	if c.token.Requested() {
		log.Debugf("cancellation requested. Stopping the pump after %d buffers", logfile.BuffersRead)
		return 0
	}
	return callbackNext
}

// processEventCallback receives raw events from the pump. Malformed
// events are skipped so a single undecodable payload cannot take the
// whole pump down.
func (c *Consumer) processEventCallback(evt *etw.EventRecord) uintptr {
	if err := c.processEvent(evt); err != nil {
		eventsDropped.Add(1)
		select {
		case c.errs <- err:
		default:
			log.Warnf("errors channel is full. Dropping error: %v", err)
		}
	}
	return callbackNext
}

func (c *Consumer) processEvent(evt *etw.EventRecord) error {
	if evt.Opcode() != processStartOpcode || evt.BufferLen == 0 {
		eventsFiltered.Add(1)
		return nil
	}
	ps, err := c.projector.project(evt)
	if err != nil {
		return err
	}
	// once the cancellation is requested the reader may be gone. A blocking
	// send on the full channel would stall the pump thread and prevent the
	// remaining buffers from retiring
	if c.token.Requested() {
		select {
		case c.events <- ps:
			eventsProcessed.Add(1)
		default:
			eventsDropped.Add(1)
		}
		return nil
	}
	eventsProcessed.Add(1)
	c.events <- ps
	return nil
}

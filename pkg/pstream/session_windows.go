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
	"time"

	"github.com/procwatch/procwatch/pkg/config"
	"github.com/procwatch/procwatch/pkg/pevent"
	"github.com/procwatch/procwatch/pkg/util/cancel"
	log "github.com/sirupsen/logrus"
)

// Session binds the session controller and the event consumer into a
// single tracing pipeline with a well-defined teardown sequence.
type Session struct {
	controller *Controller
	consumer   *Consumer
	token      *cancel.Token
}

// NewSession builds the tracing pipeline from the trace configuration.
func NewSession(config config.TraceConfig) *Session {
	token := cancel.NewToken()
	return &Session{
		controller: NewController(config),
		consumer:   NewConsumer(config, token),
		token:      token,
	}
}

// Start registers the kernel logger session, connects the consumer to
// it, and launches the event pump. Pump termination is reported through
// the errors channel, where a nil-free silence means the pump is still
// draining buffers.
func (s *Session) Start() error {
	if err := s.controller.Start(); err != nil {
		return err
	}
	if err := s.consumer.Open(); err != nil {
		// the session would stay running orphaned otherwise
		if serr := s.controller.Stop(); serr != nil {
			log.Warnf("unable to stop the trace session: %v", serr)
		}
		return err
	}
	go func() {
		if err := s.consumer.Run(); err != nil {
			s.consumer.errs <- err
		}
	}()
	return nil
}

// Events returns the channel with decoded process start events.
func (s *Session) Events() <-chan *pevent.ProcessStart { return s.consumer.Events() }

// Errors returns the channel with event processing and pump errors.
func (s *Session) Errors() <-chan error { return s.consumer.Errors() }

// Shutdown tears down the tracing pipeline. The session is flushed and
// stopped first so events sitting in its buffers reach the pump and no
// new buffers are produced, then the cancellation token is set to let
// the pump retire at the next buffer checkpoint, and finally the
// processing handle is closed. Teardown errors are logged rather than
// propagated since no step can act on the failure of a previous one.
func (s *Session) Shutdown() {
	if err := s.controller.Flush(); err != nil {
		log.Warnf("unable to flush the trace session: %v", err)
	}
	time.Sleep(time.Millisecond * 50)
	if err := s.controller.Stop(); err != nil {
		log.Warnf("unable to stop the trace session: %v", err)
	}
	s.token.Set()
	if err := s.consumer.Close(); err != nil {
		log.Warnf("unable to close the trace processing handle: %v", err)
	}
}

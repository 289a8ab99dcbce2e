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

package errors

import (
	"errors"
)

var (
	// ErrTraceAccessDenied is returned when the user doesn't have enough privileges to start the kernel trace.
	// Only users with administrative privileges or users in the Performance Log Users group can start kernel traces
	ErrTraceAccessDenied = errors.New("not enough privileges to start the trace. Only users with administrative privileges can start kernel traces")
	// ErrTraceInvalidParameter signals invalid values for the trace session, such as a null logger name offset
	ErrTraceInvalidParameter = errors.New("trace session properties contain invalid values")
	// ErrTraceBadLength signals an incorrect size of the session properties buffer
	ErrTraceBadLength = errors.New("incorrect size of the session properties buffer")
	// ErrTraceBadPathname signals that a log file path was requested for a real-time only session
	ErrTraceBadPathname = errors.New("session is supposed to run in real-time mode but a log file path was given")
	// ErrTraceNoSysResources signals that the maximum number of logging sessions has been reached
	ErrTraceNoSysResources = errors.New("maximum number of logging sessions on the system has been reached")
	// ErrTraceDiskFull signals that there is not enough space on disk for the log file. Should never happen for real-time sessions
	ErrTraceDiskFull = errors.New("not enough disk space for writing to the log file")
	// ErrTraceAlreadyRunning identifies the session with the same name or GUID already running
	ErrTraceAlreadyRunning = errors.New("trace session with the same name or GUID is already running")
	// ErrInvalidTrace signals an invalid trace handle
	ErrInvalidTrace = errors.New("invalid trace handle")
	// ErrCannotUpdateTrace signals that the state of the running trace session could not be queried
	ErrCannotUpdateTrace = errors.New("couldn't query the state of the running trace session")
	// ErrStopTrace signals that the trace session could not be stopped
	ErrStopTrace = errors.New("couldn't stop the trace session")
	// ErrRestartTrace signals that the trace session could not be restarted after a stop
	ErrRestartTrace = errors.New("couldn't restart the trace session")

	// ErrTraceBadHandleCount signals an invalid handle count given to the trace pump
	ErrTraceBadHandleCount = errors.New("handle count is not valid or the number of handles is greater than 64")
	// ErrTraceInvalidHandle signals that an element of the handle array is not a valid session handle
	ErrTraceInvalidHandle = errors.New("handle array contains an element that is not a valid event tracing session handle")
	// ErrTraceInvalidTime is returned when the trace end time precedes the start time
	ErrTraceInvalidTime = errors.New("trace end time precedes the start time")
	// ErrTraceInvalidHandleArray signals a null handle array or an invalid mix of processing sessions
	ErrTraceInvalidHandleArray = errors.New("handle array is null, mixes file and real-time sessions, or contains more than one real-time session")
	// ErrEventCallbackException signals that an exception has occurred in the event processing callback
	ErrEventCallbackException = errors.New("an exception occurred in one of the callback functions that receives the events")
	// ErrTraceCancelled is returned when the in-progress event trace is cancelled
	ErrTraceCancelled = errors.New("event trace has been cancelled")
	// ErrSessionNotRunning is returned when the session from which the consumer
	// is trying to collect events in real time is not running or doesn't have
	// the real-time mode enabled
	ErrSessionNotRunning = errors.New("session from which you are trying to consume events in real time is not running or does not have the real-time mode enabled")

	// ErrInsufficientBuffer is the expected outcome of the sizing phase
	// in two-phase TDH size queries
	ErrInsufficientBuffer = errors.New("insufficient buffer size to accommodate the payload")
	// ErrUnexpectedSizingStatus is returned when the sizing phase of a two-phase
	// size query yields a status other than the insufficient buffer condition.
	// Immediate success with a zero size also falls into this bucket
	ErrUnexpectedSizingStatus = errors.New("sizing phase of the two-phase size query returned an unexpected status")
	// ErrEventSchemaNotFound is returned when the schema for the event cannot be located
	ErrEventSchemaNotFound = errors.New("event schema not found")
)

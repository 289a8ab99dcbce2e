//go:build windows
// +build windows

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

package etw

import (
	"os"
	"syscall"
	"unsafe"

	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/sys/winerrno"
	"golang.org/x/sys/windows"
)

var (
	advapi32 = syscall.NewLazyDLL("advapi32.dll")

	procStartTrace   = advapi32.NewProc("StartTraceW")
	procControlTrace = advapi32.NewProc("ControlTraceW")
	procCloseTrace   = advapi32.NewProc("CloseTrace")
	procOpenTrace    = advapi32.NewProc("OpenTraceW")
	procProcessTrace = advapi32.NewProc("ProcessTrace")
)

// TraceOperation is the type alias for the trace operation.
type TraceOperation uint32

const (
	// Query represents the query trace operation.
	Query TraceOperation = 0
	// Stop represents the stop trace operation.
	Stop TraceOperation = 1
	// Flush represents the flush trace operation.
	Flush TraceOperation = 3
)

// TraceHandle is an alias for the trace handle type. Both the zero value
// and the all-ones value designate an invalid handle, so validity is
// always asserted through the IsValid method instead of comparing against
// raw sentinels.
type TraceHandle uintptr

// IsValid determines if the trace handle is valid.
func (handle TraceHandle) IsValid() bool {
	return handle != 0 && uint64(handle) != winerrno.InvalidProcessTraceHandle
}

// StartTrace registers and starts the event tracing session whose traits
// are described by the properties block. The trace assumes there will be a
// real-time event consumer responsible for collecting and processing events.
// If the function succeeds, it returns the handle to the tracing session.
// Each status the API is documented to return for a misconfigured or
// unauthorized session maps to a distinct error value.
func StartTrace(props *SessionProperties) (TraceHandle, error) {
	var handle TraceHandle
	errno, _, err := procStartTrace.Call(
		uintptr(unsafe.Pointer(&handle)),
		uintptr(unsafe.Pointer(windows.StringToUTF16Ptr(props.Name()))),
		uintptr(unsafe.Pointer(props.Properties())),
	)
	switch winerrno.Errno(errno) {
	case winerrno.Success:
		return handle, nil
	case winerrno.BadLength:
		return TraceHandle(0), kerrors.ErrTraceBadLength
	case winerrno.InvalidParameter:
		return TraceHandle(0), kerrors.ErrTraceInvalidParameter
	case winerrno.AlreadyExists:
		return TraceHandle(0), kerrors.ErrTraceAlreadyRunning
	case winerrno.BadPathname:
		return TraceHandle(0), kerrors.ErrTraceBadPathname
	case winerrno.DiskFull:
		return TraceHandle(0), kerrors.ErrTraceDiskFull
	case winerrno.NoSysResources:
		return TraceHandle(0), kerrors.ErrTraceNoSysResources
	case winerrno.AccessDenied:
		return TraceHandle(0), kerrors.ErrTraceAccessDenied
	default:
		return TraceHandle(0), os.NewSyscallError("StartTrace", err)
	}
}

// ControlTrace performs the requested operation on the event tracing
// session, such as flushing or stopping the session. The properties block
// must be the same block that was handed over to StartTrace.
func ControlTrace(handle TraceHandle, props *SessionProperties, operation TraceOperation) error {
	errno, _, err := procControlTrace.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(windows.StringToUTF16Ptr(props.Name()))),
		uintptr(unsafe.Pointer(props.Properties())),
		uintptr(operation),
	)
	switch winerrno.Errno(errno) {
	case winerrno.Success:
		return nil
	case winerrno.WMIInstanceNotFound:
		return kerrors.ErrSessionNotRunning
	case winerrno.AccessDenied:
		return kerrors.ErrTraceAccessDenied
	default:
		return os.NewSyscallError("ControlTrace", err)
	}
}

// CloseTrace closes the trace processing handle. If this function is
// called before ProcessTrace returns, it yields the CtxClosePending
// status. This code indicates the close operation was successful and
// ProcessTrace will stop after it drains all previously buffered events.
func CloseTrace(handle TraceHandle) error {
	errno, _, err := procCloseTrace.Call(uintptr(handle))
	if winerrno.Errno(errno) != winerrno.Success && winerrno.Errno(errno) != winerrno.CtxClosePending {
		return os.NewSyscallError("CloseTrace", err)
	}
	return nil
}

// OpenTrace opens a real-time trace session for consuming. The returned
// handle must be checked for validity since this function doesn't
// communicate failures through the last error status.
func OpenTrace(logfile *EventTraceLogfile) TraceHandle {
	handle, _, _ := procOpenTrace.Call(uintptr(unsafe.Pointer(logfile)))
	return TraceHandle(handle)
}

// ProcessTrace delivers events from the trace processing session to the
// consumer callbacks. The function blocks the calling thread until it
// delivers all events, the buffer callback cancels processing, or the
// trace handle is closed. Events recorded before the supplied start time
// are not delivered.
func ProcessTrace(handle TraceHandle, startTime *windows.Filetime) error {
	errno, _, err := procProcessTrace.Call(
		uintptr(unsafe.Pointer(&handle)),
		1,
		uintptr(unsafe.Pointer(startTime)),
		0,
	)
	switch winerrno.Errno(errno) {
	case winerrno.Success:
		return nil
	case winerrno.BadLength:
		return kerrors.ErrTraceBadHandleCount
	case winerrno.InvalidHandle:
		return kerrors.ErrTraceInvalidHandle
	case winerrno.InvalidTime:
		return kerrors.ErrTraceInvalidTime
	case winerrno.InvalidParameter:
		return kerrors.ErrTraceInvalidHandleArray
	case winerrno.NoAccess:
		return kerrors.ErrEventCallbackException
	case winerrno.Cancelled:
		return kerrors.ErrTraceCancelled
	case winerrno.WMIInstanceNotFound:
		return kerrors.ErrSessionNotRunning
	default:
		return os.NewSyscallError("ProcessTrace", err)
	}
}

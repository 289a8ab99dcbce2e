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

// Package winerrno declares the system error codes that the tracing
// and decoding APIs are documented to return.
package winerrno

// Errno is the type alias for the system error codes.
type Errno uintptr

const (
	// Success determines the successful status of the API call
	Success Errno = 0x0
	// AccessDenied is returned when the caller lacks the required privileges
	AccessDenied Errno = 0x5
	// InvalidHandle designates an invalid handle condition
	InvalidHandle Errno = 0x6
	// BadLength signals an incorrect size of the structure passed to the API
	BadLength Errno = 0x18
	// InvalidParameter indicates an invalid parameter was passed to the API
	InvalidParameter Errno = 0x57
	// DiskFull occurs when there is not enough space on the disk backing the session
	DiskFull Errno = 0x70
	// InsufficientBuffer indicates the supplied buffer is too small to hold the result
	InsufficientBuffer Errno = 0x7a
	// BadPathname tells the session name is not eligible for the requested mode
	BadPathname Errno = 0xa1
	// AlreadyExists signals a session with the same name is already running
	AlreadyExists Errno = 0xb7
	// NotFound indicates the requested schema or resource was not located
	NotFound Errno = 0x490
	// Cancelled designates a consumer-initiated cancellation of trace processing
	Cancelled Errno = 0x4c7
	// NoSysResources occurs when the maximum number of real-time consumers is reached
	NoSysResources Errno = 0x5aa
	// InvalidTime signals an invalid time window for trace processing
	InvalidTime Errno = 0x76d
	// NoAccess occurs when an exception is raised inside an event callback
	NoAccess Errno = 0x3e6
	// WMIInstanceNotFound indicates the session from which events are consumed is not running
	WMIInstanceNotFound Errno = 0x1069
	// CtxClosePending indicates the function will stop after it processes all previously buffered events
	CtxClosePending Errno = 0x1b5f
	// InvalidProcessTraceHandle designates an invalid trace processing handle
	InvalidProcessTraceHandle uint64 = 0xffffffffffffffff
)

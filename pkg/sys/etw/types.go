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
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// EventTraceFlags is the type alias for kernel trace enable flags
type EventTraceFlags uint32

// KernelTraceControlGUID is the GUID for the kernel system logger
var KernelTraceControlGUID = windows.GUID{Data1: 0x9e814aad, Data2: 0x3204, Data3: 0x11d2, Data4: [8]byte{0x9a, 0x82, 0x00, 0x60, 0x08, 0xa8, 0x69, 0x39}}

const (
	// KernelLoggerSession represents the default session name for the NT kernel logger
	KernelLoggerSession = "NT Kernel Logger"
	// WnodeTraceFlagGUID indicates that the structure contains event tracing information
	WnodeTraceFlagGUID = 0x00020000
	// EventTraceRealTimeMode denotes that the session delivers events to consumers in real time
	EventTraceRealTimeMode = 0x00000100
	// EventTraceSystemLoggerMode dictates that the session receives events from the system trace provider
	EventTraceSystemLoggerMode = 0x02000000
	// ProcessTraceModeRealtime denotes that there will be a real-time consumer for events forwarded from the providers
	ProcessTraceModeRealtime = 0x00000100
	// ProcessTraceModeEventRecord is the mode that enables the modern event record format
	ProcessTraceModeEventRecord = 0x10000000
)

const (
	// EventHeaderFlag32BitHeader indicates the event was emitted by a 32-bit provider process
	EventHeaderFlag32BitHeader = 0x0020
	// EventHeaderFlag64BitHeader indicates the event was emitted by a 64-bit provider process
	EventHeaderFlag64BitHeader = 0x0040
)

const (
	// Process flag enables process lifecycle events
	Process EventTraceFlags = 0x00000001
	// Thread flag enables thread events
	Thread EventTraceFlags = 0x00000002
	// ImageLoad flag enables image load/unload events
	ImageLoad EventTraceFlags = 0x00000004
	// NetTCPIP flag enables network events
	NetTCPIP EventTraceFlags = 0x00010000
	// Registry flag enables registry events
	Registry EventTraceFlags = 0x00020000
)

// String returns the string representation of enabled event trace flags.
func (f EventTraceFlags) String() string {
	flags := make([]string, 0)
	if f&Process == Process {
		flags = append(flags, "Process")
	}
	if f&Thread == Thread {
		flags = append(flags, "Thread")
	}
	if f&ImageLoad == ImageLoad {
		flags = append(flags, "Image")
	}
	if f&NetTCPIP == NetTCPIP {
		flags = append(flags, "TCPIP")
	}
	if f&Registry == Registry {
		flags = append(flags, "Registry")
	}
	return strings.Join(flags, ", ")
}

// WnodeHeader is a member of the EventTraceProperties structure. Most of
// the fields in this structure are not relevant to us.
type WnodeHeader struct {
	// BufferSize is the total size of memory allocated, in bytes, for the event tracing session properties.
	BufferSize uint32
	// ProviderID is reserved for internal use.
	ProviderID uint32
	// HistoricalContext stores the handle to the event tracing session on output.
	HistoricalContext [8]byte
	// KernelHandle is reserved for internal use apart from the timestamp union member.
	KernelHandle [8]byte
	// GUID that defines the session. For the NT Kernel Logger session this member must
	// be set to the system trace control GUID.
	GUID windows.GUID
	// ClientContext represents the clock resolution to use when logging the time stamp for each event.
	ClientContext uint32
	// Flags must contain WnodeTraceFlagGUID to indicate that the structure contains event tracing information.
	Flags uint32
}

// EventTraceProperties describes the traits of an event tracing session.
// The same instance of this structure accompanies the session through its
// whole lifecycle, from registration to teardown.
type EventTraceProperties struct {
	// Wnode requires BufferSize, Flags and GUID members to be initialized.
	Wnode WnodeHeader
	// BufferSize represents the amount of memory allocated for each event tracing session buffer, in kilobytes.
	BufferSize uint32
	// MinimumBuffers specifies the minimum number of buffers allocated for the session's buffer pool.
	MinimumBuffers uint32
	// MaximumBuffers is the maximum number of buffers allocated for the session's buffer pool.
	MaximumBuffers uint32
	// MaximumFileSize is the maximum size of the file used to log events, in megabytes.
	MaximumFileSize uint32
	// LogFileMode determines the logging modes for the event tracing session.
	LogFileMode uint32
	// FlushTimer specifies how often, in seconds, the trace buffers are forcibly flushed.
	// The minimum flush time is 1 second.
	FlushTimer uint32
	// EnableFlags specifies which kernel events are delivered to the consumer when
	// the NT Kernel Logger session is started.
	EnableFlags EventTraceFlags
	// AgeLimit is not used.
	AgeLimit int32
	// NumberOfBuffers indicates the number of buffers allocated for the session's buffer pool.
	NumberOfBuffers uint32
	// FreeBuffers indicates the number of buffers that are allocated but unused.
	FreeBuffers uint32
	// EventsLost counts the number of events that were not recorded.
	EventsLost uint32
	// BuffersWritten counts the number of buffers written.
	BuffersWritten uint32
	// LogBuffersLost determines the number of buffers that could not be written to the log file.
	LogBuffersLost uint32
	// RealTimeBuffersLost represents the number of buffers that could not be delivered in real-time to the consumer.
	RealTimeBuffersLost uint32
	// LoggerThreadID is the thread identifier for the event tracing session.
	LoggerThreadID uintptr
	// LogFileNameOffset is the offset to the null-terminated string that contains the log file name.
	LogFileNameOffset uint32
	// LoggerNameOffset is the offset from the start of the structure's allocated memory to the
	// beginning of the null-terminated string that contains the session name.
	LoggerNameOffset uint32
}

// EventTraceHeader contains standard event tracing information common to all events.
type EventTraceHeader struct {
	Size           uint16
	FieldTypeFlags [2]byte
	Version        [4]byte
	ThreadID       uint32
	ProcessID      uint32
	Timestamp      uint64
	GUID           [16]byte
	ProcessorTime  [8]byte
}

// EventTrace stores event information that is delivered to an event trace consumer.
type EventTrace struct {
	Header           EventTraceHeader
	InstanceID       uint32
	ParentInstanceID uint32
	ParentGUID       windows.GUID
	MofData          uintptr
	MofLength        uint32
	Context          [2]byte
}

// TraceLogfileHeader contains information about an event tracing session and its events.
type TraceLogfileHeader struct {
	// BufferSize is the size of the event tracing session's buffers in bytes.
	BufferSize uint32
	// Version is the union type that represents the version number of the operating system.
	Version [4]byte
	// ProviderVersion is the build number of the operating system.
	ProviderVersion uint32
	// NumberOfProcessors indicates the number of processors on the system.
	NumberOfProcessors uint32
	// EndTime is the time at which the event tracing session stopped. Zero for real-time consumers.
	EndTime uint64
	// TimerResolution is the resolution of the hardware timer, in units of 100 nanoseconds.
	TimerResolution uint32
	// MaximumFileSize is the size of the log file, in megabytes.
	MaximumFileSize uint32
	// LogfileMode represents the current logging mode for the event tracing session.
	LogfileMode uint32
	// BuffersWritten is the total number of buffers written by the event tracing session.
	BuffersWritten uint32
	// GUID is a union type whose members indicate the number of events lost and the CPU speed.
	GUID [16]byte
	// LoggerName is a reserved field.
	LoggerName *uint16
	// LogfileName is a reserved field.
	LogfileName *uint16
	// TimeZone contains time-zone information for the timestamp fields.
	TimeZone windows.Timezoneinformation
	// BootTime is the time at which the system was started, in 100-nanosecond intervals since January 1, 1601.
	BootTime uint64
	// PerfFreq is the frequency of the high-resolution performance counter, if one exists.
	PerfFreq uint64
	// StartTime is the time at which the event tracing session started.
	StartTime uint64
	// ReservedFlags specifies the clock type.
	ReservedFlags uint32
	// BuffersLost is the total number of buffers lost during the event tracing session.
	BuffersLost uint32
}

// EventTraceLogfile specifies how the consumer wants to read events and the
// callbacks that will receive them. When a buffer is flushed, this structure
// contains information about the session and the flushed buffer.
type EventTraceLogfile struct {
	// LogFileName is the name of the log file used by the event tracing session.
	LogFileName *uint16
	// LoggerName is the name of the event tracing session. Only applicable when consuming in real time.
	LoggerName *uint16
	// CurrentTime, on output, is the current time in 100-nanosecond intervals since January 1, 1601.
	CurrentTime int64
	// BuffersRead represents the number of buffers processed.
	BuffersRead uint32
	// LogFileMode is the union type that dictates the processing mode for events.
	LogFileMode [4]byte
	// CurrentEvent contains the last event processed.
	CurrentEvent EventTrace
	// LogfileHeader represents global information about the tracing session.
	LogfileHeader TraceLogfileHeader
	// BufferCallback is a pointer to the function that receives buffer-related statistics
	// after all events in the buffer are delivered.
	BufferCallback uintptr
	// BufferSize contains the size of each buffer, in bytes.
	BufferSize uint32
	// Filled contains the number of bytes in the buffer that contain valid information.
	Filled uint32
	// EventsLost is an unused field.
	EventsLost uint32
	// EventCallback is the union field that contains pointers to the per-event callbacks.
	EventCallback [8]byte
	// IsKernelTrace specifies whether the event tracing session is the NT kernel logger.
	IsKernelTrace uint32
	// Context is data that a consumer can specify when calling OpenTrace.
	Context uintptr
}

// NewEventTraceLogfile creates a new event trace logfile structure for
// the real-time session with the given name.
func NewEventTraceLogfile(loggerName string) EventTraceLogfile {
	return EventTraceLogfile{
		LoggerName: windows.StringToUTF16Ptr(loggerName),
	}
}

// SetModes sets the event processing modes.
func (e *EventTraceLogfile) SetModes(modes int) {
	*(*uint32)(unsafe.Pointer(&e.LogFileMode[0])) = uint32(modes)
}

// SetEventCallback sets the per-event processing callback.
func (e *EventTraceLogfile) SetEventCallback(fn uintptr) {
	*(*uintptr)(unsafe.Pointer(&e.EventCallback[4])) = fn
}

// SetBufferCallback sets the buffer checkpoint callback.
func (e *EventTraceLogfile) SetBufferCallback(fn uintptr) {
	e.BufferCallback = fn
}

// EventDescriptor contains metadata that defines the event.
type EventDescriptor struct {
	// ID represents the event identifier.
	ID uint16
	// Version indicates a revision to the event definition.
	Version uint8
	// Channel is the audience for the event.
	Channel uint8
	// Level is the severity or level of detail included in the event.
	Level uint8
	// Opcode is a step in a sequence of operations being performed within the Task.
	// For MOF-defined events the opcode carries the event type value.
	Opcode uint8
	// Task represents a larger unit of work within an application or component.
	Task uint16
	// Keyword is a bitmask that specifies a logical group of related events.
	Keyword uint64
}

// EventHeader defines information about the event.
type EventHeader struct {
	// Size represents the size of the event, in bytes.
	Size uint16
	// HeaderType is reserved.
	HeaderType uint16
	// Flags provides information about the event such as the pointer width
	// of the provider process.
	Flags uint16
	// EventProperty indicates the source to use for parsing the event data.
	EventProperty uint16
	// ThreadID identifies the thread that generated the event.
	ThreadID uint32
	// ProcessID identifies the process that generated the event.
	ProcessID uint32
	// Timestamp contains the time that the event occurred.
	Timestamp uint64
	// ProviderID is the GUID that uniquely identifies the provider that logged the event.
	ProviderID windows.GUID
	// EventDescriptor defines information about the event such as the identifier and opcode.
	EventDescriptor EventDescriptor
	// ProcessorTime is the union type that defines elapsed kernel-mode and user-mode execution time.
	ProcessorTime [8]byte
	// ActivityID is the identifier that relates two events.
	ActivityID windows.GUID
}

// BufferContext provides context information about the event.
type BufferContext struct {
	// ProcessorIndex is a union type that contains the number of the CPU on which
	// the provider process was running.
	ProcessorIndex [2]byte
	// LoggerID identifies the session that logged the event.
	LoggerID uint16
}

// EventRecord defines the layout of an event that the session delivers
// to the per-event callback.
type EventRecord struct {
	// Header represents information about the event such as the timestamp and the opcode.
	Header EventHeader
	// BufferContext defines information such as the session that logged the event.
	BufferContext BufferContext
	// ExtendedDataCount is the number of extended data structures in the ExtendedData field.
	ExtendedDataCount uint16
	// BufferLen represents the size, in bytes, of the event payload.
	BufferLen uint16
	// ExtendedData designates extended data items collected alongside the event.
	ExtendedData uintptr
	// Buffer points to the raw event payload that is parsed via the schema API.
	Buffer uintptr
	// UserContext is a pointer to custom user data passed in the EventTraceLogfile structure.
	UserContext uintptr
}

// Opcode returns the operation code of the event. For kernel process
// events the opcode discriminates start, stop, and rundown variants.
func (e *EventRecord) Opcode() uint8 {
	return e.Header.EventDescriptor.Opcode
}

// PointerSize returns the size, in bytes, of pointer-typed properties in
// the event payload, as dictated by the provider process bitness recorded
// in the header flags. If the header carries no bitness hint, the size of
// the native pointer is assumed.
func (e *EventRecord) PointerSize() uint32 {
	switch {
	case e.Header.Flags&EventHeaderFlag32BitHeader != 0:
		return 4
	case e.Header.Flags&EventHeaderFlag64BitHeader != 0:
		return 8
	default:
		return uint32(unsafe.Sizeof(uintptr(0)))
	}
}

// Payload returns the raw event payload as a byte slice. The slice
// aliases the buffer owned by the tracing session, so it must not be
// retained beyond the lifetime of the event callback.
func (e *EventRecord) Payload() []byte {
	if e.Buffer == 0 || e.BufferLen == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(e.Buffer)), e.BufferLen)
}

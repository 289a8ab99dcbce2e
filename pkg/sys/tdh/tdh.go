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

// Package tdh consumes the event schema API to resolve event metadata
// and render property values. Both operations follow the size-query
// protocol where the first call runs with an empty buffer solely to
// learn the required allocation size.
package tdh

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	kerrors "github.com/procwatch/procwatch/pkg/errors"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/sys/winerrno"
)

var (
	tdhDLL = syscall.NewLazyDLL("tdh.dll")

	tdhGetEventInformation = tdhDLL.NewProc("TdhGetEventInformation")
	tdhFormatProperty      = tdhDLL.NewProc("TdhFormatProperty")
)

// getEventInformation and formatProperty are declared as variables
// so tests can exercise the size-query protocol without the schema API.
var getEventInformation = func(evt *etw.EventRecord, buffer *byte, size *uint32) winerrno.Errno {
	errno, _, _ := tdhGetEventInformation.Call(
		uintptr(unsafe.Pointer(evt)),
		0,
		0,
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(size)),
	)
	return winerrno.Errno(errno)
}

var formatProperty = func(
	schema *byte,
	pointerSize uint32,
	inType uint16,
	outType uint16,
	length uint16,
	userDataLen uint16,
	userData *byte,
	bufferSize *uint32,
	buffer *uint16,
	consumed *uint16,
) winerrno.Errno {
	errno, _, _ := tdhFormatProperty.Call(
		uintptr(unsafe.Pointer(schema)),
		0,
		uintptr(pointerSize),
		uintptr(inType),
		uintptr(outType),
		uintptr(length),
		uintptr(userDataLen),
		uintptr(unsafe.Pointer(userData)),
		uintptr(unsafe.Pointer(bufferSize)),
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(consumed)),
	)
	return winerrno.Errno(errno)
}

// GetEventInformation retrieves the schema blob that describes the event
// and its properties. The sizing call must report an insufficient buffer
// along with the required size. Any other status, including an immediate
// success with the empty buffer, indicates the protocol went off the
// rails and is surfaced as an error.
func GetEventInformation(evt *etw.EventRecord) (*EventInfo, error) {
	var size uint32
	status := getEventInformation(evt, nil, &size)
	switch status {
	case winerrno.InsufficientBuffer:
		if size == 0 {
			return nil, errors.WithMessage(kerrors.ErrUnexpectedSizingStatus, "TdhGetEventInformation reported a zero buffer size")
		}
	case winerrno.NotFound:
		return nil, kerrors.ErrEventSchemaNotFound
	default:
		return nil, errors.WithMessagef(kerrors.ErrUnexpectedSizingStatus, "TdhGetEventInformation sizing status 0x%x", uintptr(status))
	}

	buffer := make([]byte, size)
	if status := getEventInformation(evt, &buffer[0], &size); status != winerrno.Success {
		return nil, errors.Errorf("TdhGetEventInformation failed with status 0x%x", uintptr(status))
	}
	return &EventInfo{Buffer: buffer}, nil
}

// FormatProperty renders the value of the given property as UTF-16 text.
// The payload slice must start at the first byte of the property value.
// It returns the raw formatted code units along with the number of
// payload bytes the property value occupied, so the caller can advance
// its cursor to the next property.
func FormatProperty(info *EventInfo, prop *EventPropertyInfo, pointerSize uint32, payload []byte) ([]uint16, uint16, error) {
	inType := prop.InType()
	outType := prop.OutType()
	// a null output type instructs the formatter to render
	// the value according to its input type
	if outType == OutypeNull {
		outType = inType
	}

	var userData *byte
	if len(payload) > 0 {
		userData = &payload[0]
	}

	var size uint32
	var consumed uint16
	status := formatProperty(
		&info.Buffer[0],
		pointerSize,
		inType,
		outType,
		prop.Len(),
		uint16(len(payload)),
		userData,
		&size,
		nil,
		&consumed,
	)
	if status != winerrno.InsufficientBuffer {
		return nil, 0, errors.WithMessagef(kerrors.ErrUnexpectedSizingStatus, "TdhFormatProperty sizing status 0x%x", uintptr(status))
	}
	if size == 0 {
		return nil, 0, errors.WithMessage(kerrors.ErrUnexpectedSizingStatus, "TdhFormatProperty reported a zero buffer size")
	}

	buffer := make([]uint16, (size+1)/2)
	status = formatProperty(
		&info.Buffer[0],
		pointerSize,
		inType,
		outType,
		prop.Len(),
		uint16(len(payload)),
		userData,
		&size,
		&buffer[0],
		&consumed,
	)
	if status != winerrno.Success {
		return nil, 0, errors.Errorf("TdhFormatProperty failed with status 0x%x", uintptr(status))
	}
	return buffer, consumed, nil
}

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
	"unsafe"

	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/sys/tdh"
	"github.com/procwatch/procwatch/pkg/util/utf16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEventInfo builds a synthetic schema blob with the given top-level
// property names.
func newEventInfo(names ...string) *tdh.EventInfo {
	headerSize := int(unsafe.Sizeof(tdh.TraceEventInfo{})) + (len(names)-1)*int(unsafe.Sizeof(tdh.EventPropertyInfo{}))
	size := headerSize
	encoded := make([][]uint16, len(names))
	for i, name := range names {
		encoded[i] = utf16.Encode(name)
		size += len(encoded[i]) * 2
	}
	buffer := make([]byte, size)

	info := (*tdh.TraceEventInfo)(unsafe.Pointer(&buffer[0]))
	info.TopLevelPropertyCount = uint32(len(names))
	info.PropertyCount = uint32(len(names))

	props := unsafe.Slice(&info.EventPropertyInfoArray[0], len(names))
	offset := headerSize
	for i := range names {
		props[i].NameOffset = uint32(offset)
		nameBlock := unsafe.Slice((*uint16)(unsafe.Pointer(&buffer[offset])), len(encoded[i]))
		copy(nameBlock, encoded[i])
		offset += len(encoded[i]) * 2
	}
	return &tdh.EventInfo{Buffer: buffer}
}

// newProcessStartRecord builds the event record backed by the payload slice.
func newProcessStartRecord(payload []byte, opcode uint8) *etw.EventRecord {
	evt := &etw.EventRecord{}
	evt.Header.EventDescriptor.Opcode = opcode
	evt.Header.ProcessID = 4
	evt.Header.Timestamp = 132590673000000000
	evt.Header.Flags = etw.EventHeaderFlag64BitHeader
	evt.BufferLen = uint16(len(payload))
	if len(payload) > 0 {
		evt.Buffer = uintptr(unsafe.Pointer(&payload[0]))
	}
	return evt
}

func TestProjectorWalksProperties(t *testing.T) {
	info := newEventInfo("ProcessId", "ImageFileName", "CommandLine")
	getEventInformation = func(evt *etw.EventRecord) (*tdh.EventInfo, error) {
		return info, nil
	}

	values := map[string]string{
		"ProcessId":     "0x1A2C",
		"ImageFileName": "svchost.exe",
		"CommandLine":   `C:\Windows\system32\svchost.exe -k RPCSS`,
	}
	consumptions := map[string]uint16{
		"ProcessId":     8,
		"ImageFileName": 12,
		"CommandLine":   20,
	}
	var offsets []int
	payload := make([]byte, 40)

	formatProperty = func(info *tdh.EventInfo, prop *tdh.EventPropertyInfo, pointerSize uint32, data []byte) ([]uint16, uint16, error) {
		name := info.PropertyName(prop)
		offsets = append(offsets, 40-len(data))
		// trailing garbage past the null terminator must never leak
		// into the decoded value
		buffer := append(utf16.Encode(values[name]), 0xBEEF)
		return buffer, consumptions[name], nil
	}

	evt := newProcessStartRecord(payload, processStartOpcode)
	ps, err := newProjector().project(evt)
	runtime.KeepAlive(payload)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 8, 20}, offsets)
	assert.Equal(t, uint32(0x1A2C), ps.ProcessID)
	assert.Equal(t, "svchost.exe", ps.ImageFileName)
	assert.Equal(t, `C:\Windows\system32\svchost.exe -k RPCSS`, ps.CommandLine)
	assert.Equal(t, uint32(4), ps.EmitterPID)
	assert.Equal(t, 2021, ps.Timestamp.Year())
}

func TestProjectorCursorOverrun(t *testing.T) {
	info := newEventInfo("CommandLine")
	getEventInformation = func(evt *etw.EventRecord) (*tdh.EventInfo, error) {
		return info, nil
	}
	formatProperty = func(info *tdh.EventInfo, prop *tdh.EventPropertyInfo, pointerSize uint32, data []byte) ([]uint16, uint16, error) {
		return utf16.Encode("cmd.exe"), uint16(len(data) + 1), nil
	}

	payload := make([]byte, 16)
	_, err := newProjector().project(newProcessStartRecord(payload, processStartOpcode))
	runtime.KeepAlive(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumed")
}

func TestProjectorSchemaFailure(t *testing.T) {
	getEventInformation = func(evt *etw.EventRecord) (*tdh.EventInfo, error) {
		return nil, assert.AnError
	}
	payload := make([]byte, 8)
	_, err := newProjector().project(newProcessStartRecord(payload, processStartOpcode))
	require.Error(t, err)
}

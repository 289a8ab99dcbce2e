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

package tdh

import (
	sc "syscall"
	"unsafe"

	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/util/utf16"
)

// Property input types as encoded in the event schema.
const (
	IntypeNull = iota
	IntypeUnicodeString
	IntypeAnsiString
	IntypeInt8
	IntypeUint8
	IntypeInt16
	IntypeUint16
	IntypeInt32
	IntypeUint32
	IntypeInt64
	IntypeUint64
	IntypeFloat
	IntypeDouble
	IntypeBoolean
	IntypeBinary
	IntypeGUID
	IntypePointer
	IntypeFiletime
	IntypeSystime
	IntypeSID
	IntypeHexInt32
	IntypeHexInt64
	IntypeCountedString          = 300
	IntypeCountedAnsiString      = 301
	IntypeNoNullTerminatedString = 304
	IntypeUnicodeChar            = 306
	IntypeAnsiChar               = 307
	IntypeSizet                  = 308
	IntypeHexdump                = 309
	IntypeWbemSID                = 310
)

// Property output types that drive the textual rendering of the value.
const (
	OutypeNull = iota
	OutypeString
	OutypeDatetime
	OutypeByte
	OutypeUnsignedByte
	OutypeShort
	OutypeUnsignedShort
	OutypeInt
	OutypeUnsignedInt
	OutypeLong
	OutypeUnsignedLong
	OutypeFloat
	OutypeDouble
	OutypeBoolean
	OutypeGUID
	OutypeHexBinary
	OutypeHexInt8
	OutypeHexInt16
	OutypeHexInt32
	OutypeHexInt64
	OutypePID
	OutypeTID
	OutypePort
	OutypeIPv4
	OutypeIPv6
)

// EventPropertyInfo describes a single property in the event schema.
type EventPropertyInfo struct {
	Flags      int32
	NameOffset uint32
	// Types is the union that packs the input type, the output type,
	// and the map name offset for non-struct properties.
	Types    [8]byte
	Count    [2]byte
	Length   [2]byte
	Reserved [4]byte
}

// InType returns the input type of the property value.
func (p *EventPropertyInfo) InType() uint16 {
	return *(*uint16)(unsafe.Pointer(&p.Types[0]))
}

// OutType returns the declared output type of the property value. A null
// output type instructs the formatter to fall back to the input type.
func (p *EventPropertyInfo) OutType() uint16 {
	return *(*uint16)(unsafe.Pointer(&p.Types[2]))
}

// Len returns the declared length of the property value in bytes. Zero
// designates a variable-length value such as a null-terminated string.
func (p *EventPropertyInfo) Len() uint16 {
	return *(*uint16)(unsafe.Pointer(&p.Length[0]))
}

// TraceEventInfo is the header of the variable-size schema blob that
// describes an event and its properties.
type TraceEventInfo struct {
	ProviderGUID           sc.GUID
	EventGUID              sc.GUID
	EventDescriptor        etw.EventDescriptor
	DecodingSource         int32
	ProviderNameOffset     uint32
	LevelNameOffset        uint32
	ChannelNameOffset      uint32
	KeywordsNameOffset     uint32
	TaskNameOffset         uint32
	OpcodeNameOffset       uint32
	EventMessageOffset     uint32
	ProviderMessageOffset  uint32
	BinaryXMLOffset        uint32
	BinaryXMLSize          uint32
	EventNameOffset        [4]byte
	EventAttributeOffset   [4]byte
	PropertyCount          uint32
	TopLevelPropertyCount  uint32
	Flags                  [4]byte
	EventPropertyInfoArray [1]EventPropertyInfo
}

// EventInfo owns the schema blob returned by the metadata API. Name
// offsets inside the property descriptors are relative to the start of
// the blob, so the raw buffer is kept alongside the structured view.
type EventInfo struct {
	Buffer []byte
}

// TraceInfo returns the structured view over the schema blob.
func (e *EventInfo) TraceInfo() *TraceEventInfo {
	return (*TraceEventInfo)(unsafe.Pointer(&e.Buffer[0]))
}

// Properties returns the top-level property descriptors of the event.
func (e *EventInfo) Properties() []EventPropertyInfo {
	info := e.TraceInfo()
	count := info.TopLevelPropertyCount
	if count == 0 {
		return nil
	}
	return unsafe.Slice(&info.EventPropertyInfoArray[0], count)
}

// PropertyName resolves the name of the given property by following its
// name offset into the schema blob.
func (e *EventInfo) PropertyName(p *EventPropertyInfo) string {
	if p.NameOffset == 0 || int(p.NameOffset) >= len(e.Buffer) {
		return ""
	}
	return utf16.DecodeBytes(e.Buffer[p.NameOffset:])
}

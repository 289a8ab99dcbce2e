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
	"unsafe"

	"github.com/pkg/errors"
	"github.com/procwatch/procwatch/pkg/util/utf16"
)

// maxLoggerNameSize is the maximum number of UTF-16 code units, including
// the null terminator, that the session name trailing the properties
// header can occupy.
const maxLoggerNameSize = 128

// SessionProperties owns the contiguous memory block that describes an
// event tracing session. The block consists of the fixed-size properties
// header immediately followed by the null-terminated UTF-16 session name.
// The session references this block by address for its entire lifetime,
// so the same instance must accompany every control operation.
type SessionProperties struct {
	block []byte
	name  string
}

// NewSessionProperties allocates the session properties block for the
// session with the given name. The logger name offset always lands right
// past the fixed header, and the total block size accounts for both the
// header and the name with its null terminator.
func NewSessionProperties(name string) (*SessionProperties, error) {
	utf16Name := utf16.Encode(name)
	if len(utf16Name) > maxLoggerNameSize {
		return nil, errors.Errorf("session name %q exceeds the maximum of %d characters", name, maxLoggerNameSize-1)
	}
	headerSize := unsafe.Sizeof(EventTraceProperties{})
	blockSize := headerSize + uintptr(len(utf16Name)*2)

	s := &SessionProperties{
		block: make([]byte, blockSize),
		name:  name,
	}

	props := s.Properties()
	props.Wnode.BufferSize = uint32(blockSize)
	props.Wnode.Flags = WnodeTraceFlagGUID
	props.LoggerNameOffset = uint32(headerSize)

	nameBlock := unsafe.Slice((*uint16)(unsafe.Pointer(&s.block[headerSize])), len(utf16Name))
	copy(nameBlock, utf16Name)

	return s, nil
}

// Properties returns the pointer to the properties header residing at the
// beginning of the block.
func (s *SessionProperties) Properties() *EventTraceProperties {
	return (*EventTraceProperties)(unsafe.Pointer(&s.block[0]))
}

// Name returns the session name.
func (s *SessionProperties) Name() string { return s.name }

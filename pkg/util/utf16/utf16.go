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

package utf16

import (
	"encoding/binary"
	"unicode/utf8"
)

const (
	// 0xd800-0xdc00 encodes the high 10 bits of a pair.
	surr1 = 0xd800
	// 0xdc00-0xe000 encodes the low 10 bits of a pair.
	surr2 = 0xdc00
)

func isHighSurrogate(r rune) bool { return r >= surr1 && r <= 0xdbff }
func isLowSurrogate(r rune) bool  { return r >= surr2 && r <= 0xdfff }

// Decode decodes the UTF16-encoded string to UTF-8 string. This function
// exhibits much better performance than the standard library counterpart.
// All credits go to: https://gist.github.com/skeeto/09f1410183d246f9b18cba95c4e602f0
func Decode(p []uint16) string {
	s := make([]byte, 0, 2*len(p))
	for i := 0; i < len(p); i++ {
		r := rune(0xfffd)
		r1 := rune(p[i])
		if isHighSurrogate(r1) {
			if i+1 < len(p) {
				r2 := rune(p[i+1])
				if isLowSurrogate(r2) {
					i++
					r = 0x10000 + (r1-surr1)<<10 + (r2 - surr2)
				}
			}
		} else if !isLowSurrogate(r) {
			r = r1
		}
		s = utf8.AppendRune(s, r)
	}
	return string(s)
}

// TrimNul cuts the code unit slice at the first zero code unit. Event
// property names and formatted values are NUL-terminated wide strings
// even though the underlying buffer may be longer, so any code units
// trailing the terminator are discarded.
func TrimNul(p []uint16) []uint16 {
	for i, c := range p {
		if c == 0 {
			return p[:i]
		}
	}
	return p
}

// DecodeBytes interprets the byte slice as a sequence of little-endian
// UTF-16 code units terminated by the zero code unit and decodes it to
// the UTF-8 string. An odd trailing byte is ignored.
func DecodeBytes(b []byte) string {
	s := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		c := binary.LittleEndian.Uint16(b[i:])
		if c == 0 {
			break
		}
		s = append(s, c)
	}
	return Decode(s)
}

// Encode encodes the UTF-8 string into a slice of little-endian UTF-16
// code units followed by the zero terminator.
func Encode(s string) []uint16 {
	u := make([]uint16, 0, len(s)+1)
	for _, r := range s {
		if r < 0x10000 {
			u = append(u, uint16(r))
		} else {
			r -= 0x10000
			u = append(u, uint16(surr1+(r>>10)&0x3ff), uint16(surr2+r&0x3ff))
		}
	}
	return append(u, 0)
}

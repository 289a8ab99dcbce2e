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
	"github.com/pkg/errors"
	"github.com/procwatch/procwatch/pkg/pevent"
	"github.com/procwatch/procwatch/pkg/sys/etw"
	"github.com/procwatch/procwatch/pkg/sys/tdh"
	"github.com/procwatch/procwatch/pkg/util/filetime"
	"github.com/procwatch/procwatch/pkg/util/utf16"
)

// for testing purposes
var (
	getEventInformation = tdh.GetEventInformation
	formatProperty      = tdh.FormatProperty
)

// projector turns raw event payloads into decoded process start events.
// The schema is resolved once per event and each top-level property is
// rendered in declaration order, with the payload cursor advancing by
// the number of bytes the formatter reports as consumed.
type projector struct{}

func newProjector() *projector { return &projector{} }

func (p *projector) project(evt *etw.EventRecord) (*pevent.ProcessStart, error) {
	info, err := getEventInformation(evt)
	if err != nil {
		return nil, err
	}

	payload := evt.Payload()
	pointerSize := evt.PointerSize()
	props := info.Properties()

	propertyMap := make(pevent.PropertyMap, len(props))
	cursor := 0
	for i := range props {
		prop := &props[i]
		name := info.PropertyName(prop)
		buffer, consumed, err := formatProperty(info, prop, pointerSize, payload[cursor:])
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to format the %s property", name)
		}
		if int(consumed) > len(payload)-cursor {
			return nil, errors.Errorf("property %s consumed %d bytes with only %d bytes of payload remaining", name, consumed, len(payload)-cursor)
		}
		propertyMap[name] = utf16.Decode(utf16.TrimNul(buffer))
		cursor += int(consumed)
	}

	return pevent.NewProcessStart(
		propertyMap,
		evt.Header.ProcessID,
		filetime.ToEpoch(evt.Header.Timestamp),
	)
}

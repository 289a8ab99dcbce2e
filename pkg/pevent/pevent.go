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

// Package pevent declares the process event types produced by the
// tracing session after schema-driven decoding.
package pevent

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// PropertyMap collects the decoded event properties keyed by the
// property name declared in the event schema. All values are the
// textual renditions produced by the property formatter.
type PropertyMap map[string]string

// Get returns the value of the named property or an empty string.
func (m PropertyMap) Get(name string) string { return m[name] }

// ProcessStart represents a decoded process creation event.
type ProcessStart struct {
	// UniqueProcessKey is the kernel address of the process object.
	UniqueProcessKey uint64 `mapstructure:"UniqueProcessKey" json:"unique_process_key"`
	// ProcessID is the identifier of the created process.
	ProcessID uint32 `mapstructure:"ProcessId" json:"pid"`
	// ParentID is the identifier of the process that spawned this process.
	ParentID uint32 `mapstructure:"ParentId" json:"ppid"`
	// SessionID is the terminal session in which the process was started.
	SessionID uint32 `mapstructure:"SessionId" json:"session_id"`
	// ExitStatus is the exit code for terminated processes. Start events
	// carry the still-active status.
	ExitStatus int64 `mapstructure:"ExitStatus" json:"exit_status"`
	// DirectoryTableBase is the physical address of the page directory.
	DirectoryTableBase uint64 `mapstructure:"DirectoryTableBase" json:"directory_table_base"`
	// UserSID is the security identifier of the user that started the process.
	UserSID string `mapstructure:"UserSID" json:"user_sid"`
	// ImageFileName is the file name of the process image.
	ImageFileName string `mapstructure:"ImageFileName" json:"image_file_name"`
	// CommandLine is the full command line of the process.
	CommandLine string `mapstructure:"CommandLine" json:"cmdline"`

	// EmitterPID is the identifier of the process that emitted the event
	// as recorded in the event header.
	EmitterPID uint32 `mapstructure:"-" json:"emitter_pid"`
	// Timestamp is the instant at which the event was recorded.
	Timestamp time.Time `mapstructure:"-" json:"timestamp"`
	// Props keeps all the decoded properties, including the ones that
	// have no dedicated field.
	Props PropertyMap `mapstructure:"-" json:"-"`
}

// decodeNumericHook parses numeric property values rendered by the
// formatter. Values may arrive in decimal or hex notation with the 0x
// prefix, so parsing always runs with the base inferred from the prefix.
func decodeNumericHook(from reflect.Kind, to reflect.Kind, v interface{}) (interface{}, error) {
	if from != reflect.String {
		return v, nil
	}
	s := strings.TrimSpace(v.(string))
	switch to {
	case reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uint:
		if s == "" {
			return uint64(0), nil
		}
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid numeric property value %q", s)
		}
		return n, nil
	case reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8, reflect.Int:
		if s == "" {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid numeric property value %q", s)
		}
		return n, nil
	}
	return v, nil
}

// NewProcessStart projects the decoded property map onto the process
// start event. Properties without a dedicated field remain accessible
// through the Props member.
func NewProcessStart(props PropertyMap, emitterPID uint32, timestamp time.Time) (*ProcessStart, error) {
	ps := &ProcessStart{
		EmitterPID: emitterPID,
		Timestamp:  timestamp,
		Props:      props,
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decodeNumericHook,
		Result:     ps,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]string(props)); err != nil {
		return nil, errors.Wrap(err, "unable to project process start properties")
	}
	return ps, nil
}

// String returns the one-line representation of the process start event.
func (p *ProcessStart) String() string {
	return fmt.Sprintf(
		"pid: %d, ppid: %d, session: %d, image: %s, cmdline: %s",
		p.ProcessID,
		p.ParentID,
		p.SessionID,
		p.ImageFileName,
		p.CommandLine,
	)
}

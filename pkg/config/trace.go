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

package config

import (
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	sessionName          = "trace.session-name"
	bufferSize           = "trace.buffer-size"
	minBuffers           = "trace.min-buffers"
	maxBuffers           = "trace.max-buffers"
	flushInterval        = "trace.flush-interval"
	enableThreadEvents   = "trace.enable-thread"
	enableImageEvents    = "trace.enable-image"
	enableNetEvents      = "trace.enable-net"
	enableRegistryEvents = "trace.enable-registry"

	// defaultSessionName is the mandatory name of the NT kernel logger session
	defaultSessionName = "NT Kernel Logger"

	defaultBufferSize = uint32(512)
)

var (
	defaultMinBuffers    = uint32(runtime.NumCPU() * 2)
	defaultMaxBuffers    = defaultMinBuffers + 20
	defaultFlushInterval = time.Second
)

// TraceConfig stores the configuration options for fine-tuning the
// tracing session controller and consumer.
type TraceConfig struct {
	// SessionName is the name under which the tracing session is registered.
	SessionName string `json:"trace.session-name" yaml:"trace.session-name"`
	// BufferSize represents the amount of memory allocated for each session buffer, in kilobytes.
	// The buffer size affects the rate at which buffers fill and must be flushed.
	BufferSize uint32 `json:"trace.buffer-size" yaml:"trace.buffer-size"`
	// MinBuffers determines the minimum number of buffers allocated for the session's buffer pool.
	MinBuffers uint32 `json:"trace.min-buffers" yaml:"trace.min-buffers"`
	// MaxBuffers is the maximum number of buffers allocated for the session's buffer pool.
	MaxBuffers uint32 `json:"trace.max-buffers" yaml:"trace.max-buffers"`
	// FlushTimer specifies how often the trace buffers are forcibly flushed.
	FlushTimer time.Duration `json:"trace.flush-interval" yaml:"trace.flush-interval"`
	// EnableThreadEvents indicates if thread events are collected alongside process events.
	EnableThreadEvents bool `json:"trace.enable-thread" yaml:"trace.enable-thread"`
	// EnableImageEvents indicates if image load events are collected alongside process events.
	EnableImageEvents bool `json:"trace.enable-image" yaml:"trace.enable-image"`
	// EnableNetEvents determines whether network events are collected alongside process events.
	EnableNetEvents bool `json:"trace.enable-net" yaml:"trace.enable-net"`
	// EnableRegistryEvents indicates if registry events are collected alongside process events.
	EnableRegistryEvents bool `json:"trace.enable-registry" yaml:"trace.enable-registry"`
}

func (c *TraceConfig) initFromViper(v *viper.Viper) {
	c.SessionName = v.GetString(sessionName)
	c.BufferSize = uint32(v.GetInt(bufferSize))
	c.MinBuffers = uint32(v.GetInt(minBuffers))
	c.MaxBuffers = uint32(v.GetInt(maxBuffers))
	c.FlushTimer = v.GetDuration(flushInterval)
	c.EnableThreadEvents = v.GetBool(enableThreadEvents)
	c.EnableImageEvents = v.GetBool(enableImageEvents)
	c.EnableNetEvents = v.GetBool(enableNetEvents)
	c.EnableRegistryEvents = v.GetBool(enableRegistryEvents)
}

func (c *TraceConfig) addFlags(flags *pflag.FlagSet) {
	flags.String(sessionName, defaultSessionName, "Designates the name under which the tracing session is registered. The kernel system logger only accepts its canonical name")
	flags.Int(bufferSize, int(defaultBufferSize), "Represents the amount of memory allocated for each event tracing session buffer, in kilobytes. The buffer size affects the rate at which buffers fill and must be flushed")
	flags.Int(minBuffers, int(defaultMinBuffers), "Determines the minimum number of buffers allocated for the event tracing session's buffer pool")
	flags.Int(maxBuffers, int(defaultMaxBuffers), "Determines the maximum number of buffers allocated for the event tracing session's buffer pool")
	flags.Duration(flushInterval, defaultFlushInterval, "Specifies how often the trace buffers are forcibly flushed")
	flags.Bool(enableThreadEvents, false, "Determines whether thread events are collected by the kernel logger provider")
	flags.Bool(enableImageEvents, false, "Determines whether image load events are collected by the kernel logger provider")
	flags.Bool(enableNetEvents, false, "Determines whether network events are collected by the kernel logger provider")
	flags.Bool(enableRegistryEvents, false, "Determines whether registry events are collected by the kernel logger provider")
}

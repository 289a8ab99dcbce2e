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

// Package console renders process start events to standard output,
// either as template-driven text lines or as JSON documents.
package console

import (
	"bufio"
	"encoding/json"
	"expvar"
	"io"
	"os"
	"text/template"

	"github.com/pkg/errors"
	"github.com/procwatch/procwatch/pkg/pevent"
)

var consoleErrors = expvar.NewInt("output.console.errors")

type format string

const (
	pretty format = "pretty"
	jsonly format = "json"

	// defaultTemplate is the line template used in pretty rendering mode
	defaultTemplate = "{{ .Timestamp.Format \"15:04:05.000\" }}  pid={{ .ProcessID }} ppid={{ .ParentID }} session={{ .SessionID }} image={{ .ImageFileName }} cmdline={{ .CommandLine }}"
)

// Console writes process start events to the underlying writer.
type Console struct {
	writer *bufio.Writer
	tmpl   *template.Template
	format format
}

// NewConsole builds the console output from the config. An unknown
// format or a malformed template yields an error.
func NewConsole(config Config) (*Console, error) {
	return newConsole(os.Stdout, config)
}

func newConsole(w io.Writer, config Config) (*Console, error) {
	f := format(config.Format)
	if f == "" {
		f = pretty
	}
	if f != pretty && f != jsonly {
		return nil, errors.Errorf("%s is not a valid console format. Choose between pretty|json", f)
	}
	text := config.Template
	if text == "" {
		text = defaultTemplate
	}
	tmpl, err := template.New("console").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid console template")
	}
	return &Console{
		writer: bufio.NewWriterSize(w, 8*1024),
		tmpl:   tmpl,
		format: f,
	}, nil
}

var nl = []byte("\n")

// Publish renders the event and flushes it to the writer.
func (c *Console) Publish(evt *pevent.ProcessStart) error {
	var err error
	switch c.format {
	case jsonly:
		var buf []byte
		buf, err = json.Marshal(evt)
		if err == nil {
			_, err = c.writer.Write(buf)
		}
	case pretty:
		err = c.tmpl.Execute(c.writer, evt)
	}
	if err != nil {
		consoleErrors.Add(1)
		return err
	}
	if _, err := c.writer.Write(nl); err != nil {
		consoleErrors.Add(1)
		return err
	}
	if err := c.writer.Flush(); err != nil {
		consoleErrors.Add(1)
		return err
	}
	return nil
}

// Close flushes any buffered output.
func (c *Console) Close() error { return c.writer.Flush() }

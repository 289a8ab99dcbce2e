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

package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/procwatch/procwatch/pkg/outputs/console"
	"github.com/procwatch/procwatch/pkg/pstream"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func run(cmd *cobra.Command, args []string) error {
	if err := initConfigAndLogger(cfg); err != nil {
		return err
	}

	out, err := console.NewConsole(cfg.Output)
	if err != nil {
		return err
	}

	session := pstream.NewSession(cfg.Trace)
	if err := session.Start(); err != nil {
		return err
	}

	log.Infof("bootstrapping with pid %d", os.Getpid())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, os.Interrupt)

	var processed int64
	start := time.Now()
loop:
	for {
		select {
		case evt := <-session.Events():
			processed++
			if err := out.Publish(evt); err != nil {
				log.Warnf("unable to render the event: %v", err)
			}
		case err := <-session.Errors():
			log.Errorf("event processing failure: %v", err)
		case <-sig:
			break loop
		}
	}

	session.Shutdown()

	// render the events the pump delivered between the signal and the
	// session teardown
drain:
	for {
		select {
		case evt := <-session.Events():
			processed++
			if err := out.Publish(evt); err != nil {
				log.Warnf("unable to render the event: %v", err)
			}
		default:
			break drain
		}
	}

	if err := out.Close(); err != nil {
		log.Warnf("unable to flush the output: %v", err)
	}

	log.Infof(
		"captured %s process start events in %s",
		humanize.Comma(processed),
		time.Since(start).Round(time.Second),
	)

	return nil
}

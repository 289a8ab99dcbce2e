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

// Package config assembles the configuration store from command line
// flags, environment variables, and the optional YAML or JSON
// configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/procwatch/procwatch/pkg/outputs/console"
	"github.com/procwatch/procwatch/pkg/util/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configFile = "config-file"

// Config stores configuration options for fine-tuning the behaviour of procwatch.
type Config struct {
	// Trace stores the tracing session controller/consumer settings.
	Trace TraceConfig `json:"trace" yaml:"trace"`
	// Log contains log-specific configuration options.
	Log log.Config `json:"logging" yaml:"logging"`
	// Output stores the console output settings.
	Output console.Config `json:"output" yaml:"output"`

	flags *pflag.FlagSet
	viper *viper.Viper
	opts  *Options
}

// Options determines which config flags are registered depending on the command type.
type Options struct {
	run  bool
	list bool
}

// Option is the type alias for the config option.
type Option func(*Options)

// WithRun determines the main command is executed.
func WithRun() Option {
	return func(o *Options) {
		o.run = true
	}
}

// WithList determines a listing or informational command is executed.
func WithList() Option {
	return func(o *Options) {
		o.list = true
	}
}

// NewWithOpts builds a new configuration store from a variety of sources
// such as configuration files, environment variables or command line flags.
func NewWithOpts(options ...Option) *Config {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("PROCWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	c := &Config{
		Trace:  TraceConfig{},
		Log:    log.Config{},
		Output: console.Config{},
		viper:  v,
		flags:  new(pflag.FlagSet),
		opts:   opts,
	}

	if opts.run {
		console.AddFlags(c.flags)
	}
	c.addFlags()

	return c
}

// MustViperize adds the flag set to the Cobra command and binds them within the Viper flags.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init setups the configuration state from Viper.
func (c *Config) Init() error {
	c.Trace.initFromViper(c.viper)
	c.Log.InitFromViper(c.viper)
	c.Output.InitFromViper(c.viper)
	return nil
}

// TryLoadFile attempts to load the configuration file from the specified path.
func (c *Config) TryLoadFile(file string) error {
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// File returns the config file path.
func (c *Config) File() string { return c.viper.GetString(configFile) }

// Validate ensures that all configuration options have well-formed values.
// The config file, when present, must parse as YAML or JSON, and the trace
// settings must fall within the ranges the tracing session accepts.
func (c *Config) Validate() error {
	file := c.File()
	if _, err := os.Stat(file); err == nil {
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		var out interface{}
		switch filepath.Ext(file) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &out)
		case ".json":
			err = json.Unmarshal(b, &out)
		default:
			return errors.Errorf("%s is not a supported config file extension", filepath.Ext(file))
		}
		if err != nil {
			return errors.Wrap(err, "couldn't read the config file")
		}
	}
	if c.Trace.SessionName == "" {
		return errors.New("trace session name cannot be empty")
	}
	if c.Trace.MinBuffers > c.Trace.MaxBuffers {
		return errors.Errorf("minimum buffer count %d exceeds the maximum of %d", c.Trace.MinBuffers, c.Trace.MaxBuffers)
	}
	switch c.Output.Format {
	case "", "pretty", "json":
	default:
		return errors.Errorf("%s is not a valid console format. Choose between pretty|json", c.Output.Format)
	}
	return nil
}

func (c *Config) addFlags() {
	c.flags.String(configFile, filepath.Join(os.Getenv("PROGRAMFILES"), "procwatch", "config", "procwatch.yml"), "Indicates the location of the configuration file")
	if c.opts.run || c.opts.list {
		c.Trace.addFlags(c.flags)
		c.Log.AddFlags(c.flags)
	}
}

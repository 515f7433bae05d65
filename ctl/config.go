// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
	"github.com/mcoppeta/junior-design-1337-sub000/statsd"
	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config holds the settings shared by every command. The root command
// resolves it from flags, the environment and an optional toml file
// before any command runs.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	// LogPath redirects logging from stderr to a file.
	LogPath string `toml:"log-path"`

	// StatsHost is the address of a statsd agent mutation metrics are
	// reported to. Metrics are dropped when it is empty.
	StatsHost string `toml:"stats-host"`
}

// NewConfig returns an instance of Config with default values.
func NewConfig() *Config {
	return &Config{}
}

// Logger builds the logger the configuration asks for. The fallback
// writer is used when no log path is configured.
func (c *Config) Logger(fallback io.Writer) (logger.Logger, error) {
	w := fallback
	if c.LogPath != "" {
		f, err := os.OpenFile(c.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "opening log file")
		}
		w = f
	}
	if c.Verbose {
		return logger.NewVerboseLogger(w), nil
	}
	return logger.NewStandardLogger(w), nil
}

// StatsClient dials the configured statsd agent, or returns the no-op
// client when no agent is configured.
func (c *Config) StatsClient() (exodus.StatsClient, error) {
	if c.StatsHost == "" {
		return exodus.NopStatsClient, nil
	}
	client, err := statsd.NewStatsClient(c.StatsHost, "exo")
	if err != nil {
		return nil, errors.Wrap(err, "dialing statsd agent")
	}
	return client, nil
}

// ConfigCommand represents a command for printing the resolved config.
type ConfigCommand struct {
	*exodus.CmdIO
	Config *Config
}

// NewConfigCommand returns a new instance of ConfigCommand.
func NewConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		CmdIO:  exodus.NewCmdIO(stdin, stdout, stderr),
		Config: NewConfig(),
	}
}

// Run prints out the resolved config.
func (cmd *ConfigCommand) Run(_ context.Context) error {
	buf, err := toml.Marshal(*cmd.Config)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Stdout, string(buf))
	return nil
}

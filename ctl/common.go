// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"io"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/pkg/errors"
)

// parseAxis maps a CLI axis name onto a coordinate axis.
func parseAxis(s string) (exodus.Axis, error) {
	switch s {
	case "x":
		return exodus.AxisX, nil
	case "y":
		return exodus.AxisY, nil
	case "z":
		return exodus.AxisZ, nil
	}
	return 0, errors.Errorf("unknown axis %q, want x, y or z", s)
}

// parseOp maps a CLI comparison operator onto a CompareOp.
func parseOp(s string) (exodus.CompareOp, error) {
	switch op := exodus.CompareOp(s); op {
	case exodus.Less, exodus.Greater, exodus.LessOrEqual,
		exodus.GreaterOrEqual, exodus.Equal, exodus.NotEqual:
		return op, nil
	}
	return "", errors.Errorf("unknown comparison operator %q", s)
}

// openForEdit opens an archive in append mode with the logging and
// stats wiring the configuration asks for.
func openForEdit(path string, conf *Config, fallbackLog io.Writer) (*exodus.File, error) {
	log, err := conf.Logger(fallbackLog)
	if err != nil {
		return nil, err
	}
	stats, err := conf.StatsClient()
	if err != nil {
		return nil, err
	}
	return exodus.Open(path, exodus.ModeAppend,
		exodus.OptFileLogger(log), exodus.OptFileStats(stats))
}

// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/pkg/errors"
)

// SplitCommand represents a command for splitting a side set on a
// coordinate threshold and committing the result to a new archive.
type SplitCommand struct {
	// Path to the source archive.
	Path string

	// Set is the id of the side set to split.
	Set int64

	// Axis names the coordinate axis the threshold applies to, one of
	// "x", "y" or "z".
	Axis string

	// Op is the comparison operator for the threshold.
	Op string

	// Value is the coordinate threshold.
	Value float64

	// Any selects a side when any of its nodes passes the comparison
	// instead of requiring all of them to.
	Any bool

	// Into holds the two ids the split partitions are created under.
	Into []int64

	// Drop removes the source side set after the split.
	Drop bool

	// Output is the path the edited archive is committed to.
	Output string

	// Config is the resolved CLI configuration.
	Config *Config

	// Standard input/output
	*exodus.CmdIO
}

// NewSplitCommand returns a new instance of SplitCommand.
func NewSplitCommand(stdin io.Reader, stdout, stderr io.Writer) *SplitCommand {
	return &SplitCommand{
		Config: NewConfig(),
		CmdIO:  exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run splits the side set and commits the result.
func (cmd *SplitCommand) Run(ctx context.Context) error {
	if cmd.Set == 0 {
		return errors.New("a side set id is required")
	}
	if len(cmd.Into) != 2 {
		return errors.New("need exactly two set ids to split into")
	}
	axis, err := parseAxis(cmd.Axis)
	if err != nil {
		return err
	}
	op, err := parseOp(cmd.Op)
	if err != nil {
		return err
	}
	test := exodus.AllNodes
	if cmd.Any {
		test = exodus.AnyNode
	}

	f, err := openForEdit(cmd.Path, cmd.Config, cmd.Stderr)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	ident := exodus.ByID(cmd.Set)
	switch axis {
	case exodus.AxisX:
		err = f.SplitSideSetX(ident, op, cmd.Value, test, cmd.Into[0], cmd.Into[1], cmd.Drop, "", "")
	case exodus.AxisY:
		err = f.SplitSideSetY(ident, op, cmd.Value, test, cmd.Into[0], cmd.Into[1], cmd.Drop, "", "")
	case exodus.AxisZ:
		err = f.SplitSideSetZ(ident, op, cmd.Value, test, cmd.Into[0], cmd.Into[1], cmd.Drop, "", "")
	}
	if err != nil {
		return errors.Wrap(err, "splitting side set")
	}

	if err := f.Write(ctx, cmd.Output); err != nil {
		return errors.Wrap(err, "committing")
	}
	fmt.Fprintf(cmd.Stdout, "wrote %s\n", cmd.Output)
	return nil
}

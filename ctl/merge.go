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

// MergeCommand represents a command for merging two node sets into a
// new one and committing the result to a new archive.
type MergeCommand struct {
	// Path to the source archive.
	Path string

	// First and Second are the ids of the operand node sets.
	First  int64
	Second int64

	// New is the id the merged node set is created under.
	New int64

	// Keep retains the operand sets instead of removing them.
	Keep bool

	// Output is the path the edited archive is committed to.
	Output string

	// Config is the resolved CLI configuration.
	Config *Config

	// Standard input/output
	*exodus.CmdIO
}

// NewMergeCommand returns a new instance of MergeCommand.
func NewMergeCommand(stdin io.Reader, stdout, stderr io.Writer) *MergeCommand {
	return &MergeCommand{
		Config: NewConfig(),
		CmdIO:  exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run merges the node sets and commits the result.
func (cmd *MergeCommand) Run(ctx context.Context) error {
	if cmd.First == 0 || cmd.Second == 0 || cmd.New == 0 {
		return errors.New("two operand set ids and a new set id are required")
	}
	f, err := openForEdit(cmd.Path, cmd.Config, cmd.Stderr)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	if err := f.MergeNodeSets(cmd.New, cmd.First, cmd.Second, !cmd.Keep); err != nil {
		return errors.Wrap(err, "merging node sets")
	}

	if err := f.Write(ctx, cmd.Output); err != nil {
		return errors.Wrap(err, "committing")
	}
	fmt.Fprintf(cmd.Stdout, "wrote %s\n", cmd.Output)
	return nil
}

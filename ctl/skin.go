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

// SkinCommand represents a command for deriving the boundary side set
// of a mesh and committing the result to a new archive.
type SkinCommand struct {
	// Path to the source archive.
	Path string

	// Block restricts the skin to one element block. Zero skins the
	// whole mesh.
	Block int64

	// Set is the id the skin side set is created under.
	Set int64

	// Name optionally names the skin side set.
	Name string

	// Output is the path the edited archive is committed to.
	Output string

	// Config is the resolved CLI configuration.
	Config *Config

	// Standard input/output
	*exodus.CmdIO
}

// NewSkinCommand returns a new instance of SkinCommand.
func NewSkinCommand(stdin io.Reader, stdout, stderr io.Writer) *SkinCommand {
	return &SkinCommand{
		Config: NewConfig(),
		CmdIO:  exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run skins the mesh and commits the result.
func (cmd *SkinCommand) Run(ctx context.Context) error {
	if cmd.Set == 0 {
		return errors.New("a side set id is required")
	}
	f, err := openForEdit(cmd.Path, cmd.Config, cmd.Stderr)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	if cmd.Block != 0 {
		err = f.SkinBlock(exodus.ByID(cmd.Block), cmd.Set, cmd.Name)
	} else {
		err = f.Skin(cmd.Set, cmd.Name)
	}
	if err != nil {
		return errors.Wrap(err, "skinning")
	}

	if err := f.Write(ctx, cmd.Output); err != nil {
		return errors.Wrap(err, "committing")
	}
	fmt.Fprintf(cmd.Stdout, "wrote %s\n", cmd.Output)
	return nil
}

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

// CopyCommand represents a command for rebuilding the node sets of an
// archive into a freshly created one. The destination is built through
// a write-mode session, so it carries a new header and provenance
// trail rather than the source's.
type CopyCommand struct {
	// Src is the path of the archive to copy from.
	Src string

	// Dst is the path of the archive to create.
	Dst string

	// Config is the resolved CLI configuration.
	Config *Config

	// Standard input/output
	*exodus.CmdIO
}

// NewCopyCommand returns a new instance of CopyCommand.
func NewCopyCommand(stdin io.Reader, stdout, stderr io.Writer) *CopyCommand {
	return &CopyCommand{
		Config: NewConfig(),
		CmdIO:  exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run copies the node sets of Src into a new archive at Dst.
func (cmd *CopyCommand) Run(ctx context.Context) error {
	log, err := cmd.Config.Logger(cmd.Stderr)
	if err != nil {
		return err
	}
	stats, err := cmd.Config.StatsClient()
	if err != nil {
		return err
	}

	src, err := exodus.Open(cmd.Src, exodus.ModeRead, exodus.OptFileLogger(log))
	if err != nil {
		return errors.Wrap(err, "opening source")
	}
	defer src.Close()

	wordSize, err := src.WordSize()
	if err != nil {
		return errors.Wrap(err, "reading word size")
	}

	dst, err := exodus.Open(cmd.Dst, exodus.ModeWrite,
		exodus.OptFileLogger(log),
		exodus.OptFileStats(stats),
		exodus.OptFileWordSize(int(wordSize)))
	if err != nil {
		return errors.Wrap(err, "creating destination")
	}
	defer dst.Close()

	ids := src.NodeSetIDs()
	for _, id := range ids {
		nodes, err := src.NodeSet(exodus.ByID(id))
		if err != nil {
			return errors.Wrapf(err, "reading node set %d", id)
		}
		name, err := src.NodeSetName(exodus.ByID(id))
		if err != nil {
			return errors.Wrapf(err, "reading node set %d name", id)
		}
		if err := dst.AddNodeSet(nodes, id, name); err != nil {
			return errors.Wrapf(err, "copying node set %d", id)
		}
	}

	if err := dst.Write(ctx, ""); err != nil {
		return errors.Wrap(err, "committing")
	}
	fmt.Fprintf(cmd.Stdout, "copied %d node sets to %s\n", len(ids), cmd.Dst)
	return nil
}

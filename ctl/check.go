// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/boltdb"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// CheckCommand represents a command for verifying archive files. Every
// written payload is rehashed against its stored checksum, and a few
// structural rules are checked through the editing layer.
type CheckCommand struct {
	// Paths of the archive files to verify.
	Paths []string

	// Standard input/output
	*exodus.CmdIO
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand(stdin io.Reader, stdout, stderr io.Writer) *CheckCommand {
	return &CheckCommand{
		CmdIO: exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run verifies each file. Files are verified concurrently; the report
// is printed in argument order once all files are done.
func (cmd *CheckCommand) Run(_ context.Context) error {
	problems := make([][]string, len(cmd.Paths))

	var g errgroup.Group
	for i, path := range cmd.Paths {
		i, path := i, path
		g.Go(func() error {
			found, err := cmd.checkArchive(path)
			if err != nil {
				return errors.Wrapf(err, "checking %s", path)
			}
			problems[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bad := 0
	for i, path := range cmd.Paths {
		if len(problems[i]) == 0 {
			fmt.Fprintf(cmd.Stdout, "%s: ok\n", path)
			continue
		}
		bad++
		for _, p := range problems[i] {
			fmt.Fprintf(cmd.Stdout, "%s: %s\n", path, p)
		}
	}
	if bad > 0 {
		return fmt.Errorf("check failed")
	}
	return nil
}

// checkArchive verifies one file and returns the problems found in it.
func (cmd *CheckCommand) checkArchive(path string) ([]string, error) {
	var problems []string

	// Rehash every written payload against its stored digest.
	store, err := boltdb.Open(path, archive.ModeRead)
	if err != nil {
		return nil, errors.Wrap(err, "opening container")
	}
	corrupt, err := store.VerifyChecksums()
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrap(err, "verifying checksums")
	}
	for _, name := range corrupt {
		problems = append(problems, fmt.Sprintf("corrupt payload: %s", name))
	}

	// Structural rules the editing layer maintains.
	f, err := exodus.Open(path, exodus.ModeRead)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	elemMap := f.ElementIDMap()
	if n := f.NumElements(); len(elemMap) != n {
		problems = append(problems, fmt.Sprintf("element id map has %d entries, want %d", len(elemMap), n))
	}
	for _, id := range f.SideSetIDs() {
		elems, _, err := f.SideSet(exodus.ByID(id))
		if err != nil {
			return nil, err
		}
		facts, err := f.SideSetDistFactors(exodus.ByID(id))
		if err != nil {
			return nil, err
		}
		if len(facts) == 0 {
			continue
		}
		if len(elems) == 0 || len(facts)%len(elems) != 0 {
			problems = append(problems, fmt.Sprintf("side set %d: %d distribution factors do not divide across %d sides", id, len(facts), len(elems)))
		}
	}
	return problems, nil
}

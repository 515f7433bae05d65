// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/pkg/errors"
)

// InfoCommand represents a command for describing the contents of an
// archive: header attributes, collection counts and one table per
// collection kind.
type InfoCommand struct {
	// Path to the archive to describe.
	Path string

	// Standard input/output
	*exodus.CmdIO
}

// NewInfoCommand returns a new instance of InfoCommand.
func NewInfoCommand(stdin io.Reader, stdout, stderr io.Writer) *InfoCommand {
	return &InfoCommand{
		CmdIO: exodus.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the archive description.
func (cmd *InfoCommand) Run(_ context.Context) error {
	f, err := exodus.Open(cmd.Path, exodus.ModeRead)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	if err := cmd.printHeader(f); err != nil {
		return errors.Wrap(err, "reading header")
	}
	cmd.printCounts(f)
	if err := cmd.printBlocks(f); err != nil {
		return errors.Wrap(err, "reading element blocks")
	}
	if err := cmd.printNodeSets(f); err != nil {
		return errors.Wrap(err, "reading node sets")
	}
	if err := cmd.printSideSets(f); err != nil {
		return errors.Wrap(err, "reading side sets")
	}
	return nil
}

func (cmd *InfoCommand) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.Stdout)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault
	return t
}

func (cmd *InfoCommand) printHeader(f *exodus.File) error {
	title, err := f.Title()
	if err != nil {
		return err
	}
	version, err := f.Version()
	if err != nil {
		return err
	}
	apiVersion, err := f.APIVersion()
	if err != nil {
		return err
	}
	wordSize, err := f.WordSize()
	if err != nil {
		return err
	}
	int64Status, err := f.Int64Status()
	if err != nil {
		return err
	}
	numDim, err := f.NumDimensions()
	if err != nil {
		return err
	}
	numNodes, err := f.NumNodes()
	if err != nil {
		return err
	}
	numSteps, err := f.NumTimeSteps()
	if err != nil {
		return err
	}
	numQA, err := f.NumQA()
	if err != nil {
		return err
	}

	t := cmd.newTable()
	t.AppendHeader(table.Row{"Attribute", "Value"})
	t.AppendRow(table.Row{"Path", f.Path()})
	t.AppendRow(table.Row{"Title", title})
	t.AppendRow(table.Row{"Version", version})
	t.AppendRow(table.Row{"API version", apiVersion})
	t.AppendRow(table.Row{"Word size", wordSize})
	t.AppendRow(table.Row{"Int64 status", int64Status})
	t.AppendRow(table.Row{"Dimensions", numDim})
	t.AppendRow(table.Row{"Nodes", numNodes})
	t.AppendRow(table.Row{"Time steps", numSteps})
	t.AppendRow(table.Row{"QA records", numQA})
	t.Render()
	fmt.Fprintln(cmd.Stdout)
	return nil
}

func (cmd *InfoCommand) printCounts(f *exodus.File) {
	t := cmd.newTable()
	t.AppendHeader(table.Row{"Node sets", "Side sets", "Element blocks", "Elements"})
	t.AppendRow(table.Row{f.NumNodeSets(), f.NumSideSets(), f.NumElementBlocks(), f.NumElements()})
	t.Render()
	fmt.Fprintln(cmd.Stdout)
}

func (cmd *InfoCommand) printBlocks(f *exodus.File) error {
	ids := f.ElementBlockIDs()
	if len(ids) == 0 {
		return nil
	}
	names := f.ElementBlockNames()

	t := cmd.newTable()
	t.AppendHeader(table.Row{"Block", "Name", "Type", "Elements", "Nodes/elem"})
	for i, id := range ids {
		typ, nodesPer, count, err := f.BlockInfo(exodus.ByID(id))
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{id, names[i], typ, count, nodesPer})
	}
	t.Render()
	fmt.Fprintln(cmd.Stdout)
	return nil
}

func (cmd *InfoCommand) printNodeSets(f *exodus.File) error {
	ids := f.NodeSetIDs()
	if len(ids) == 0 {
		return nil
	}
	names := f.NodeSetNames()

	t := cmd.newTable()
	t.AppendHeader(table.Row{"Node set", "Name", "Nodes"})
	for i, id := range ids {
		nodes, err := f.NodeSet(exodus.ByID(id))
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{id, names[i], len(nodes)})
	}
	t.Render()
	fmt.Fprintln(cmd.Stdout)
	return nil
}

func (cmd *InfoCommand) printSideSets(f *exodus.File) error {
	ids := f.SideSetIDs()
	if len(ids) == 0 {
		return nil
	}
	names := f.SideSetNames()

	t := cmd.newTable()
	t.AppendHeader(table.Row{"Side set", "Name", "Sides", "Dist factors"})
	for i, id := range ids {
		elems, _, err := f.SideSet(exodus.ByID(id))
		if err != nil {
			return err
		}
		facts, err := f.SideSetDistFactors(exodus.ByID(id))
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{id, names[i], len(elems), len(facts)})
	}
	t.Render()
	fmt.Fprintln(cmd.Stdout)
	return nil
}

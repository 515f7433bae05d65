// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newMergeCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewMergeCommand(stdin, stdout, stderr)
	cmd.Config = conf
	ccmd := &cobra.Command{
		Use:   "merge <path>",
		Short: "Merge two node sets into a new one.",
		Long: `
Creates a node set holding the union of two existing node sets and
commits the edited mesh to a new archive. The operand sets are removed
unless --keep is given.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Path = args[0]
			return cmd.Run(context.Background())
		},
	}

	flags := ccmd.Flags()
	flags.Int64Var(&cmd.First, "first", 0, "id of the first operand node set")
	flags.Int64Var(&cmd.Second, "second", 0, "id of the second operand node set")
	flags.Int64Var(&cmd.New, "new", 0, "id to create the merged node set under")
	flags.BoolVar(&cmd.Keep, "keep", false, "keep the operand sets after the merge")
	flags.StringVarP(&cmd.Output, "output", "o", "", "path to commit the edited archive to")
	return ccmd
}

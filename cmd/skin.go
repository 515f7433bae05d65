// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newSkinCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewSkinCommand(stdin, stdout, stderr)
	cmd.Config = conf
	ccmd := &cobra.Command{
		Use:   "skin <path>",
		Short: "Derive the boundary side set of a mesh.",
		Long: `
Collects the faces that belong to exactly one element into a new side
set and commits the edited mesh to a new archive.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Path = args[0]
			return cmd.Run(context.Background())
		},
	}

	flags := ccmd.Flags()
	flags.Int64Var(&cmd.Block, "block", 0, "id of the element block to skin, 0 skins the whole mesh")
	flags.Int64Var(&cmd.Set, "set", 0, "id to create the skin side set under")
	flags.StringVar(&cmd.Name, "name", "", "name of the skin side set")
	flags.StringVarP(&cmd.Output, "output", "o", "", "path to commit the edited archive to")
	return ccmd
}

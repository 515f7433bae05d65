// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newCopyCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewCopyCommand(stdin, stdout, stderr)
	cmd.Config = conf
	ccmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Rebuild the node sets of an archive into a new one.",
		Long: `
Creates a fresh archive at dst and rebuilds the node sets of src into
it through a write-mode session.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Src, cmd.Dst = args[0], args[1]
			return cmd.Run(context.Background())
		},
	}
	return ccmd
}

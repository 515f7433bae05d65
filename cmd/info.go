// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newInfoCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewInfoCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "info <path>",
		Short: "Describe an archive.",
		Long: `
Prints the header attributes, collection counts, element blocks and
sets of an archive.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Path = args[0]
			return cmd.Run(context.Background())
		},
	}
	return ccmd
}

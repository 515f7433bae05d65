// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newCheckCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewCheckCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "check <path> [path2]...",
		Short: "Verify archive files.",
		Long: `
Rehashes every payload in the given archives against its stored
checksum and checks structural rules. Files are verified concurrently.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Paths = args
			return cmd.Run(context.Background())
		},
	}
	return ccmd
}

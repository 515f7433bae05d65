// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/spf13/cobra"
)

func newConfigCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewConfigCommand(stdin, stdout, stderr)
	cmd.Config = conf
	ccmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration.",
		Long: `
Prints the configuration the command line, environment and config file
resolve to, as toml.
`,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(context.Background())
		},
	}
	return ccmd
}

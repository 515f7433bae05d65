// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSplitCommand(conf *ctl.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewSplitCommand(stdin, stdout, stderr)
	cmd.Config = conf
	var into []string
	ccmd := &cobra.Command{
		Use:   "split <path>",
		Short: "Split a side set on a coordinate threshold.",
		Long: `
Partitions a side set into two new ones by comparing the coordinates
of each side's nodes against a threshold, and commits the edited mesh
to a new archive.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Path = args[0]
			cmd.Into = cmd.Into[:0]
			for _, s := range into {
				id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				if err != nil {
					return errors.Errorf("invalid set id %q in --into", s)
				}
				cmd.Into = append(cmd.Into, id)
			}
			return cmd.Run(context.Background())
		},
	}

	flags := ccmd.Flags()
	flags.Int64Var(&cmd.Set, "set", 0, "id of the side set to split")
	flags.StringVar(&cmd.Axis, "axis", "z", "coordinate axis to compare on: x, y or z")
	flags.StringVar(&cmd.Op, "op", "<", "comparison operator: <, >, <=, >=, = or !=")
	flags.Float64Var(&cmd.Value, "value", 0, "coordinate threshold")
	flags.BoolVar(&cmd.Any, "any", false, "select a side when any node passes instead of all nodes")
	flags.StringSliceVar(&into, "into", nil, "the two ids to create the partitions under")
	flags.BoolVar(&cmd.Drop, "drop", false, "remove the source side set after the split")
	flags.StringVarP(&cmd.Output, "output", "o", "", "path to commit the edited archive to")
	return ccmd
}

// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
)

// Ensure the info command prints the header, block and set tables.
func TestInfoCommand(t *testing.T) {
	path := tempPath(t, "bar.exo")
	buildBarMesh(t, path)

	var stdin, stdout, stderr bytes.Buffer
	cmd := ctl.NewInfoCommand(&stdin, &stdout, &stderr)
	cmd.Path = path
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := stdout.String()
	for _, want := range []string{
		"test mesh",
		"HEX8",
		"Block 100",
		"NodeSet 50",
		"NodeSet 51",
		"SideSet 10",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

// Ensure the info command fails on a file that does not exist.
func TestInfoCommand_MissingFile(t *testing.T) {
	var stdin, stdout, stderr bytes.Buffer
	cmd := ctl.NewInfoCommand(&stdin, &stdout, &stderr)
	cmd.Path = tempPath(t, "missing.exo")
	if err := cmd.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
)

// Ensure the split command partitions a side set on a coordinate
// threshold and drops the source set when asked to.
func TestSplitCommand(t *testing.T) {
	path := tempPath(t, "bar.exo")
	out := tempPath(t, "split.exo")
	buildBarMesh(t, path)

	var stdin, stdout, stderr bytes.Buffer
	cmd := ctl.NewSplitCommand(&stdin, &stdout, &stderr)
	cmd.Path = path
	cmd.Set = 10
	cmd.Axis = "z"
	cmd.Op = "<"
	cmd.Value = 1.0
	cmd.Into = []int64{70, 71}
	cmd.Drop = true
	cmd.Output = out
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	f := mustOpen(t, out, exodus.ModeRead)
	if diff := cmp.Diff(f.SideSetIDs(), []int64{70, 71}); diff != "" {
		t.Fatal(diff)
	}

	// The bottom face of element 1 sits at z=0, the top face of
	// element 2 at z=2.
	if elems, sides, err := f.SideSet(exodus.ByID(70)); err != nil {
		t.Fatal(err)
	} else if diff := cmp.Diff(elems, []int64{1}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(sides, []int64{5}); diff != "" {
		t.Fatal(diff)
	}
	if elems, sides, err := f.SideSet(exodus.ByID(71)); err != nil {
		t.Fatal(err)
	} else if diff := cmp.Diff(elems, []int64{2}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(sides, []int64{6}); diff != "" {
		t.Fatal(diff)
	}
}

// Ensure the split command rejects an unknown axis.
func TestSplitCommand_BadAxis(t *testing.T) {
	var stdin, stdout, stderr bytes.Buffer
	cmd := ctl.NewSplitCommand(&stdin, &stdout, &stderr)
	cmd.Path = tempPath(t, "bar.exo")
	cmd.Set = 10
	cmd.Axis = "w"
	cmd.Op = "<"
	cmd.Into = []int64{70, 71}
	err := cmd.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown axis") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Ensure the split command requires exactly two target set ids.
func TestSplitCommand_IntoCount(t *testing.T) {
	var stdin, stdout, stderr bytes.Buffer
	cmd := ctl.NewSplitCommand(&stdin, &stdout, &stderr)
	cmd.Path = tempPath(t, "bar.exo")
	cmd.Set = 10
	cmd.Axis = "z"
	cmd.Op = "<"
	cmd.Into = []int64{70}
	err := cmd.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exactly two set ids") {
		t.Fatalf("unexpected error: %v", err)
	}
}

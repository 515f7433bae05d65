// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
/*
This is the entrypoint for the exo binary.
*/
package main

import (
	"fmt"
	"os"

	"github.com/mcoppeta/junior-design-1337-sub000/cmd"
	"github.com/mcoppeta/junior-design-1337-sub000/monitor"
)

func main() {
	defer monitor.CaptureMessage("Session:Ended")
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

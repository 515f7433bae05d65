// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/ctl"
	"github.com/mcoppeta/junior-design-1337-sub000/monitor"
	"github.com/mcoppeta/junior-design-1337-sub000/tracing"
	"github.com/mcoppeta/junior-design-1337-sub000/tracing/opentracing"
	ot "github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := ctl.NewConfig()
	rc := &cobra.Command{
		Use:   "exo",
		Short: "Exo inspects and edits finite element mesh archives.",
		Long: `Exo inspects and edits finite element mesh archives.

This binary bundles the common maintenance tools: describing an
archive, verifying payload checksums, skinning a mesh into a boundary
side set, and merging and splitting sets.

` + exodus.VersionInfo(true) + "\n",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := setAllConfig(v, cmd.Flags()); err != nil {
				return err
			}
			if os.Getenv("EXO_MONITOR") == "1" {
				monitor.InitErrorMonitor(exodus.Version)
				// Route handle spans through whatever tracer the
				// process-global opentracing registry carries.
				tracing.GlobalTracer = opentracing.NewTracer(ot.GlobalTracer())
			}
			return nil
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().BoolVar(&conf.Verbose, "verbose", false, "Enable verbose logging.")
	rc.PersistentFlags().StringVar(&conf.LogPath, "log-path", "", "Log to a file instead of stderr.")
	rc.PersistentFlags().StringVar(&conf.StatsHost, "stats-host", "", "Address of a statsd agent to report mutation metrics to.")

	rc.AddCommand(newInfoCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newCheckCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newSkinCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newMergeCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newSplitCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newCopyCommand(conf, stdin, stdout, stderr))
	rc.AddCommand(newConfigCommand(conf, stdin, stdout, stderr))

	rc.SetOutput(stderr)
	return rc
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes replaced by underscores, and prefixed with
// EXO plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error { // nolint: unparam
	// add cmd line flag def to viper
	err := v.BindPFlags(flags)
	if err != nil {
		return err
	}

	// add env to viper
	v.SetEnvPrefix("EXO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	c := v.GetString("config")
	var flagErr error
	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	// add config file to viper
	if c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}

		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}

	}

	// set all values from viper
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			// special handling is needed for stringSlice as v.GetString will
			// always return "" in the case that the value is an actual string
			// slice from a config file rather than a comma separated string
			// from a flag or env var.
			vss := v.GetStringSlice(f.Name)
			value = strings.Join(vss, ",")
		} else {
			value = v.GetString(f.Name)
		}

		if f.Changed {
			// If f.Changed is true, that means the value has already been set
			// by a flag, and we don't need to ask viper for it since the flag
			// is the highest priority. This works around a problem with string
			// slices where f.Value.Set(csvString) would cause the elements of
			// csvString to be appended to the existing value rather than
			// replacing it.
			return
		}
		flagErr = f.Value.Set(value)
	})
	return flagErr
}

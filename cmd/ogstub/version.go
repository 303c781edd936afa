package main

import (
	"fmt"
	runtimedebug "runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if v == "" {
			if info, ok := runtimedebug.ReadBuildInfo(); ok {
				v = info.Main.Version
			}
		}
		if v == "" {
			v = "(devel)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ogstub", v)
	},
}

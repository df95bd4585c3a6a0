package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of canon",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("canon version %s\n", buildVersion())
	},
}

func buildVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

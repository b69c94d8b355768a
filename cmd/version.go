package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the ndfkit build version, the VCS revision it was built from and the Go version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				cmd.Println("ndfkit version: unknown")
				return
			}

			for _, line := range versionLines(info) {
				cmd.Println(line)
			}
		},
	}
}

// versionLines formats build info as "label<TAB>value" lines.
func versionLines(info *debug.BuildInfo) []string {
	version := info.Main.Version
	if version == "" {
		version = "unknown"
	}

	lines := []string{"ndfkit version\t" + version}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			lines = append(lines, "revision\t"+s.Value)
		}
	}

	return append(lines, "go version\t"+info.GoVersion)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

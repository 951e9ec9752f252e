package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			fmt.Fprintln(cmd.OutOrStdout(), "signiz", version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), versionDetails(version, readBuildInfo()))
	},
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

// versionDetails renders v with the commit, toolchain and platform recorded
// in the binary, e.g. "signiz v1.2.0 (3f2a9c1, go1.25.6, linux/amd64)".
func versionDetails(v string, info *debug.BuildInfo) string {
	if info == nil {
		return "signiz " + v
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	var parts []string
	if rev := settings["vcs.revision"]; rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		parts = append(parts, rev)
	}
	if info.GoVersion != "" {
		parts = append(parts, info.GoVersion)
	}
	if settings["GOOS"] != "" {
		parts = append(parts, settings["GOOS"]+"/"+settings["GOARCH"])
	}
	if len(parts) == 0 {
		return "signiz " + v
	}
	return fmt.Sprintf("signiz %s (%s)", v, strings.Join(parts, ", "))
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Include commit, Go version and platform")
}

// Package version carries the CLI version and optional build metadata,
// all overridable at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"
	// GitCommit is the git commit hash the binary was built from.
	GitCommit = ""
	// BuildDate is the build date in ISO-8601.
	BuildDate = ""
)

var versionColor = color.New(color.FgGreen, color.Bold)

// String renders the version line shown by --version, appending commit
// and build date when the build stamped them in.
func String() string {
	var b strings.Builder
	b.WriteString(versionColor.Sprint(Version))
	meta := make([]string, 0, 2)
	if GitCommit != "" {
		meta = append(meta, GitCommit)
	}
	if BuildDate != "" {
		meta = append(meta, BuildDate)
	}
	if len(meta) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(meta, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

import "fmt"

// Populated by -ldflags at build time; defaults used for local dev.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// String is the one-line summary printed by `tradeshop version`.
func String() string {
	return fmt.Sprintf("tradeshop %s (commit %s, branch %s, built %s)", Version, GitCommit, GitBranch, BuildDate)
}

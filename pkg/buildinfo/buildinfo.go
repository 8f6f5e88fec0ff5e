// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/terrabrasilis/wmscap/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/terrabrasilis/wmscap/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/terrabrasilis/wmscap/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/wmscap
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the --version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}

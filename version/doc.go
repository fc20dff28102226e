// Package version holds the build identity of the spindle binary.
//
// The values are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/spindle/version.Version=1.4.0 \
//	    -X github.com/kbukum/spindle/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unset values fall back to the VCS stamp embedded by the Go toolchain.
package version

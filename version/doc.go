// Package version reports the build of the resolver embedded in a binary.
//
// Version and commit are set at link time and fall back to the module's
// VCS stamp:
//
//	go build -ldflags "-X github.com/kbukum/resolvekit/version.Version=1.4.0"
//
// The short form is used as the default service.version of exported
// telemetry and is attached to the container's startup log.
package version

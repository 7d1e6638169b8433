// Package pkg provides shared utilities for the muenipc driver stack.
//
// This package contains common functionality used across sinfo, affinity,
// channel, muennet, and platform, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types shared across the driver stack
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentChannel, "channel synchronized", "epoch", epoch)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrEpochChanged) {
//	    // Resynchronize the reader
//	}
package pkg

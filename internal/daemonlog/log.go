// Package daemonlog builds the root structured logger for the daemon,
// following the teacher's internal/lsp/server.go pattern
// (zap.NewDevelopment() with a zap.NewNop() fallback) and handing out
// named, field-scoped children to each component instance.
package daemonlog

import "go.uber.org/zap"

// New builds a development-mode logger when verbose is true (human
// readable, colorized console output) or a production-mode JSON logger
// otherwise, falling back to zap.NewNop() if construction fails for any
// reason so a logging misconfiguration never prevents the daemon from
// starting.
func New(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ForWorkspace scopes a logger to one (root, language) workspace instance.
func ForWorkspace(base *zap.Logger, root, language, instanceID string) *zap.Logger {
	return base.With(
		zap.String("component", "workspace"),
		zap.String("root", root),
		zap.String("language", language),
		zap.String("instance", instanceID),
	)
}

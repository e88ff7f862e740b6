// Package daemon wires the session, caches and the lsptypes-speaking
// internal packages (symbols, resolver, edits, hierarchy) into the
// method table spec.md §6 exposes over the inbound RPC boundary. It is
// the "core" the rest of this repository's packages exist to serve —
// itself deliberately thin, so the caller can read the handler table as
// a map of spec.md's interface straight onto the packages that actually
// do the work.
package daemon

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/cache"
	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
	"github.com/lspmuxd/lspmuxd/internal/session"
)

// Default cache byte budgets, overridable via Options; spec.md §4.F
// leaves the exact figures to the implementation.
const (
	DefaultHoverCacheBytes  = 8 << 20
	DefaultSymbolCacheBytes = 16 << 20
)

// Options configures a Daemon's cache sizing; zero values fall back to
// the defaults above.
type Options struct {
	HoverCacheBytes  int
	SymbolCacheBytes int
}

// Daemon holds every long-lived collaborator a handler needs: the
// session (workspace lifecycle), the two bounded caches spec.md §4.F
// describes, the server-discovery config, and a scoped logger.
type Daemon struct {
	session     *session.Session
	cfg         *serverconfig.Config
	logger      *zap.Logger
	hoverCache  *cache.Cache
	symbolCache *cache.Cache
	pid         int
}

// New builds a Daemon over an already-loaded config and logger.
func New(cfg *serverconfig.Config, logger *zap.Logger, opts Options) *Daemon {
	hoverBytes := opts.HoverCacheBytes
	if hoverBytes <= 0 {
		hoverBytes = DefaultHoverCacheBytes
	}
	symbolBytes := opts.SymbolCacheBytes
	if symbolBytes <= 0 {
		symbolBytes = DefaultSymbolCacheBytes
	}

	return &Daemon{
		session:     session.New(cfg, logger),
		cfg:         cfg,
		logger:      logger,
		hoverCache:  cache.New(hoverBytes),
		symbolCache: cache.New(symbolBytes),
		pid:         os.Getpid(),
	}
}

// Shutdown stops every live workspace; callers exit the process after
// this returns, per spec.md §6's `shutdown` entry.
func (d *Daemon) Shutdown(ctx context.Context) {
	d.session.CloseAll(ctx)
}

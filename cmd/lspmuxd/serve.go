package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lspmuxd/lspmuxd/internal/daemon"
	"github.com/lspmuxd/lspmuxd/internal/daemonlog"
	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
)

const shutdownGrace = 5 * time.Second

var (
	serveSocket    string
	serveDebugAddr string
	serveVerbose   bool
)

func init() {
	serveCmd.Flags().StringVar(&serveSocket, "socket", defaultSocketPath(), "Unix socket path to listen on")
	serveCmd.Flags().StringVar(&serveDebugAddr, "debug-addr", os.Getenv("LSPCMD_DEBUG_ADDR"), "address for the debug HTTP surface (empty disables it)")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "enable development-mode (human readable) logging")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon, listening on a Unix socket",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := daemonlog.New(serveVerbose)
		defer logger.Sync()

		cfg, err := serverconfig.Load()
		if err != nil {
			return fmt.Errorf("loading server config: %w", err)
		}

		d := daemon.New(cfg, logger, daemon.Options{
			HoverCacheBytes:  envBytes("LSPCMD_HOVER_CACHE_BYTES"),
			SymbolCacheBytes: envBytes("LSPCMD_SYMBOL_CACHE_BYTES"),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		listener := daemon.NewListener(serveSocket, d, logger)

		// g's derived gctx cancels the moment either goroutine returns a
		// non-nil error, so a fatal listener failure stops the debug HTTP
		// surface (and vice versa) instead of leaving it running until the
		// next signal.
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("listening", zap.String("socket", serveSocket))
			return listener.Serve(gctx)
		})

		if serveDebugAddr != "" {
			g.Go(func() error {
				logger.Info("debug http surface listening", zap.String("addr", serveDebugAddr))
				return d.ServeDebugHTTP(gctx, serveDebugAddr)
			})
		}

		runErr := g.Wait()

		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		d.Shutdown(shutdownCtx)

		if runErr != nil && ctx.Err() == nil {
			return runErr
		}
		return nil
	},
}

// defaultSocketPath resolves the inbound transport's Unix socket
// directory per spec.md §6.3: $XDG_RUNTIME_DIR when set, else the OS
// temp directory.
func defaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	return filepath.Join(runtimeDir, "lspmuxd", "lspmuxd.sock")
}

// envBytes reads an optional byte-count override; 0 leaves
// daemon.New's own default in effect.
func envBytes(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

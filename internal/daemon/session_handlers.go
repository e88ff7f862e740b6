package daemon

import (
	"context"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/session"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

// WorkspaceRootParams is the params shape shared by `restartWorkspace`
// and `removeWorkspace`.
type WorkspaceRootParams struct {
	WorkspaceRoot string `json:"workspaceRoot"`
}

// RestartWorkspaceResult is `restartWorkspace`'s result.
type RestartWorkspaceResult struct {
	Restarted []string `json:"restarted"`
}

// RestartWorkspace restarts every already-running workspace for root, or
// — if none is running yet — discovers the languages present under root
// and spawns a fresh workspace per language, per restart_workspace.py.
func (d *Daemon) RestartWorkspace(ctx context.Context, params WorkspaceRootParams) (RestartWorkspaceResult, error) {
	if params.WorkspaceRoot == "" {
		return RestartWorkspaceResult{}, lspmuxerr.NewInvalidInput("workspaceRoot is required")
	}

	existing := d.session.WorkspacesForRoot(params.WorkspaceRoot)
	if len(existing) > 0 {
		var restarted []string
		for _, ws := range existing {
			if err := ws.Restart(ctx); err != nil {
				return RestartWorkspaceResult{}, err
			}
			restarted = append(restarted, ws.ServerName())
		}
		return RestartWorkspaceResult{Restarted: restarted}, nil
	}

	languages, err := d.discoverLanguages(params.WorkspaceRoot)
	if err != nil {
		return RestartWorkspaceResult{}, err
	}
	if len(languages) == 0 {
		return RestartWorkspaceResult{}, lspmuxerr.NewNotFound("no supported source files found in %s", params.WorkspaceRoot)
	}

	var started []string
	for _, lang := range languages {
		ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, params.WorkspaceRoot, lang)
		if err != nil {
			return RestartWorkspaceResult{}, err
		}
		started = append(started, ws.ServerName())
	}
	return RestartWorkspaceResult{Restarted: started}, nil
}

// discoverLanguages walks root and returns the distinct configured
// languages any file under it resolves to.
func (d *Daemon) discoverLanguages(root string) ([]string, error) {
	files, err := symbols.WalkWorkspaceFiles(root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, relPath := range files {
		lang, ok := d.cfg.LanguageForPath(relPath)
		if !ok || seen[lang] {
			continue
		}
		seen[lang] = true
		out = append(out, lang)
	}
	return out, nil
}

// RemoveWorkspace stops and forgets every workspace registered for root.
func (d *Daemon) RemoveWorkspace(ctx context.Context, params WorkspaceRootParams) (struct{}, error) {
	if params.WorkspaceRoot == "" {
		return struct{}{}, lspmuxerr.NewInvalidInput("workspaceRoot is required")
	}
	for _, ws := range d.session.WorkspacesForRoot(params.WorkspaceRoot) {
		if err := d.session.Remove(ctx, params.WorkspaceRoot, ws.LanguageID); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}

// DescribeSessionResult is `describeSession`'s result, per
// describe_session.py's DescribeSessionResult.
type DescribeSessionResult struct {
	DaemonPid  int                            `json:"daemonPid"`
	Caches     map[string]cacheInfo           `json:"caches"`
	Workspaces []session.WorkspaceDescription `json:"workspaces"`
}

type cacheInfo struct {
	CurrentBytes int `json:"currentBytes"`
	MaxBytes     int `json:"maxBytes"`
	Entries      int `json:"entries"`
}

// DescribeSession snapshots the daemon pid, both cache's stats, and
// every running workspace.
func (d *Daemon) DescribeSession(ctx context.Context) (DescribeSessionResult, error) {
	hoverStats := d.hoverCache.Stats()
	symbolStats := d.symbolCache.Stats()

	return DescribeSessionResult{
		DaemonPid: d.pid,
		Caches: map[string]cacheInfo{
			"hoverCache":  {CurrentBytes: hoverStats.CurrentBytes, MaxBytes: hoverStats.MaxBytes, Entries: hoverStats.Entries},
			"symbolCache": {CurrentBytes: symbolStats.CurrentBytes, MaxBytes: symbolStats.MaxBytes, Entries: symbolStats.Entries},
		},
		Workspaces: d.session.Describe(),
	}, nil
}

// RawLspRequestParams is `rawLspRequest`'s params.
type RawLspRequestParams struct {
	WorkspaceRoot string      `json:"workspaceRoot"`
	Language      string      `json:"language"`
	Method        string      `json:"method"`
	Params        interface{} `json:"params"`
}

// RawLspRequest passes method/params straight through to the named
// language's workspace client and returns whatever the server replies,
// errors included and unmodified, per spec.md §7 and
// raw_lsp_request.py's handle_raw_lsp_request.
func (d *Daemon) RawLspRequest(ctx context.Context, params RawLspRequestParams) (interface{}, error) {
	if params.WorkspaceRoot == "" || params.Language == "" || params.Method == "" {
		return nil, lspmuxerr.NewInvalidInput("workspaceRoot, language and method are all required")
	}

	ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, params.WorkspaceRoot, params.Language)
	if err != nil {
		return nil, err
	}
	if err := ws.WaitForServiceReady(ctx); err != nil {
		return nil, err
	}

	var raw interface{}
	if err := ws.Client().SendRequest(ctx, params.Method, params.Params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ShutdownResult is `shutdown`'s result.
type ShutdownResult struct {
	Status string `json:"status"`
}

// ShutdownHandler is the handler-table entry point for `shutdown`: it
// only returns the "shuttingDown" status. Neither the handler table nor
// Listener stops workspaces or exits the process in response to it;
// Daemon.Shutdown runs when cmd/lspmuxd's serve loop ends, on a signal
// or on a fatal listener or debug-HTTP error.
func (d *Daemon) ShutdownHandler(ctx context.Context) (ShutdownResult, error) {
	return ShutdownResult{Status: "shuttingDown"}, nil
}

// Package session implements component E from spec.md §4.E: the
// process-wide registry of workspaces, keyed by (root, language), and
// the single-flight latch that guarantees one spawn per key under
// concurrent requests.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
	"github.com/lspmuxd/lspmuxd/internal/workspace"
)

// Session owns every workspace this daemon process has spawned.
type Session struct {
	cfg    *serverconfig.Config
	logger *zap.Logger

	mu         sync.Mutex
	workspaces map[key]*workspace.Workspace
	spawns     singleflight.Group
}

type key struct {
	root string
	lang string
}

func (k key) String() string {
	return fmt.Sprintf("%s\x00%s", k.root, k.lang)
}

// New creates an empty Session.
func New(cfg *serverconfig.Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:        cfg,
		logger:     logger,
		workspaces: make(map[key]*workspace.Workspace),
	}
}

// GetOrCreateWorkspaceForLanguage returns the running workspace for
// (root, lang), spawning it if absent. Concurrent calls for the same key
// are coalesced onto a single spawn via singleflight.Group (spec.md
// §4.E's concurrency invariant): only the first caller actually starts
// the workspace, every other concurrent caller blocks on Do and receives
// that same result.
func (s *Session) GetOrCreateWorkspaceForLanguage(ctx context.Context, root, lang string) (*workspace.Workspace, error) {
	k := key{root: root, lang: lang}

	s.mu.Lock()
	if ws, ok := s.workspaces[k]; ok && ws.State() != workspace.StateStopped {
		s.mu.Unlock()
		return ws, nil
	}
	s.mu.Unlock()

	v, err, _ := s.spawns.Do(k.String(), func() (interface{}, error) {
		ws := workspace.New(root, lang, s.cfg, s.logger)
		if err := ws.Start(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.workspaces[k] = ws
		s.mu.Unlock()
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*workspace.Workspace), nil
}

// GetOrCreateWorkspace derives a language id from filePath's extension via
// the server config collaborator, then delegates.
func (s *Session) GetOrCreateWorkspace(ctx context.Context, filePath, root string) (*workspace.Workspace, error) {
	lang, ok := s.cfg.LanguageForPath(filePath)
	if !ok {
		return nil, lspmuxerr.NewInvalidInput("no configured language server handles %s", filePath)
	}
	return s.GetOrCreateWorkspaceForLanguage(ctx, root, lang)
}

// Workspaces returns a snapshot of every currently registered workspace.
func (s *Session) Workspaces() []*workspace.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*workspace.Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, ws)
	}
	return out
}

// WorkspacesForRoot returns every workspace registered under root,
// across all its languages — restartWorkspace's "does this root already
// have workspaces" check, per
// original_source/lspcmd/daemon/handlers/restart_workspace.py.
func (s *Session) WorkspacesForRoot(root string) []*workspace.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*workspace.Workspace
	for k, ws := range s.workspaces {
		if k.root == root {
			out = append(out, ws)
		}
	}
	return out
}

// Lookup returns the workspace for (root, lang) if one is registered.
func (s *Session) Lookup(root, lang string) (*workspace.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[key{root: root, lang: lang}]
	return ws, ok
}

// Restart stops and respawns the workspace for (root, lang), returning an
// error if none is registered.
func (s *Session) Restart(ctx context.Context, root, lang string) (*workspace.Workspace, error) {
	s.mu.Lock()
	ws, ok := s.workspaces[key{root: root, lang: lang}]
	s.mu.Unlock()
	if !ok {
		return nil, lspmuxerr.NewNotFound("no workspace running for %s in %s", lang, root)
	}
	if err := ws.Restart(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

// Remove stops and forgets the workspace for (root, lang); a no-op if
// none is registered.
func (s *Session) Remove(ctx context.Context, root, lang string) error {
	k := key{root: root, lang: lang}
	s.mu.Lock()
	ws, ok := s.workspaces[k]
	delete(s.workspaces, k)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return ws.Stop(ctx)
}

// CloseAll stops every workspace concurrently and waits for all of them,
// per spec.md §4.E. Each Stop error is logged locally rather than
// collected, so a plain WaitGroup fits better than errgroup.Group here:
// there is no first error to propagate, and every workspace must be
// stopped regardless of an earlier one failing.
func (s *Session) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := make([]*workspace.Workspace, 0, len(s.workspaces))
	for k, ws := range s.workspaces {
		all = append(all, ws)
		delete(s.workspaces, k)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, ws := range all {
		wg.Add(1)
		go func(w *workspace.Workspace) {
			defer wg.Done()
			if err := w.Stop(ctx); err != nil {
				s.logger.Warn("error stopping workspace during shutdown",
					zap.String("root", w.Root), zap.String("language", w.LanguageID), zap.Error(err))
			}
		}(ws)
	}
	wg.Wait()
}

// WorkspaceDescription is one entry of the describeSession snapshot
// (spec.md §6) that Describe returns per registered workspace.
type WorkspaceDescription struct {
	Root          string   `json:"root"`
	Language      string   `json:"language"`
	State         string   `json:"state"`
	ServerName    string   `json:"serverName"`
	Pid           int      `json:"pid"`
	OpenDocuments []string `json:"openDocuments"`
}

// Describe snapshots every workspace this session owns.
func (s *Session) Describe() []WorkspaceDescription {
	workspaces := s.Workspaces()
	out := make([]WorkspaceDescription, 0, len(workspaces))
	for _, ws := range workspaces {
		out = append(out, WorkspaceDescription{
			Root:          ws.Root,
			Language:      ws.LanguageID,
			State:         string(ws.State()),
			ServerName:    ws.ServerName(),
			Pid:           ws.Pid(),
			OpenDocuments: ws.OpenDocuments(),
		})
	}
	return out
}

// Package workspace implements components C (document tracker) and D
// (workspace) from spec.md §2: one LSP server instance bound to
// (root, language), its open-document set, and its start/stop/restart
// lifecycle.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/daemonlog"
	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/rpcclient"
	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
)

// State is one point in the lifecycle spec.md §3 names:
// created -> starting -> ready -> stopping -> stopped.
type State string

const (
	StateCreated  State = "created"
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Workspace is the pairing of a filesystem root with one running
// language server (spec.md §3 "Workspace"). It owns exactly one child
// process/client at a time and the document set bound to it.
type Workspace struct {
	Root       string
	LanguageID string

	serverConfig *serverconfig.Config
	baseLogger   *zap.Logger

	mu         sync.Mutex
	state      State
	instanceID string
	client     *rpcclient.Client
	docs       *documentTracker
	ready      chan struct{}
	spec       *serverconfig.ServerSpec
}

// New creates a Workspace in the "created" state; it does not yet spawn
// a process (see Start).
func New(root, languageID string, cfg *serverconfig.Config, baseLogger *zap.Logger) *Workspace {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	return &Workspace{
		Root:         root,
		LanguageID:   languageID,
		serverConfig: cfg,
		baseLogger:   baseLogger,
		state:        StateCreated,
	}
}

// State reports the workspace's current lifecycle state.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// InstanceID returns the current spawn's correlation id, empty before
// the first Start.
func (w *Workspace) InstanceID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.instanceID
}

// Start looks up the server command for LanguageID, spawns the child
// process and runs the initialize/initialized handshake (spec.md §4.D).
func (w *Workspace) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateReady || w.state == StateStarting {
		w.mu.Unlock()
		return nil
	}
	w.state = StateStarting
	instanceID := uuid.NewString()
	w.instanceID = instanceID
	w.mu.Unlock()

	spec, err := w.serverConfig.ForLanguage(w.LanguageID)
	if err != nil {
		w.setState(StateStopped)
		return lspmuxerr.NewInvalidInput("%v", err)
	}

	logger := daemonlog.ForWorkspace(w.baseLogger, w.Root, w.LanguageID, instanceID)

	client, err := rpcclient.Start(ctx, spec.Name, spec.Command, spec.Args, spec.EnvOrInherit(), logger, requestTimeout())
	if err != nil {
		w.setState(StateStopped)
		return fmt.Errorf("spawning %s: %w", spec.Name, err)
	}

	ready := make(chan struct{})
	w.mu.Lock()
	w.client = client
	w.docs = newDocumentTracker(client, w.LanguageID)
	w.spec = spec
	w.ready = ready
	w.mu.Unlock()

	if err := w.handshake(ctx, client); err != nil {
		w.setState(StateStopped)
		return err
	}

	w.setState(StateReady)
	close(ready)

	go w.watchForDeath(client)

	return nil
}

// handshake sends initialize then initialized, following spec.md §4.B's
// lifecycle and the capability set it names.
func (w *Workspace) handshake(ctx context.Context, client *rpcclient.Client) error {
	rootURI := string(uri.File(w.Root))
	pid := os.Getpid()

	params := map[string]interface{}{
		"processId": pid,
		"rootUri":   rootURI,
		"capabilities": map[string]interface{}{
			"textDocument": map[string]interface{}{
				"synchronization": map[string]interface{}{
					"didSave": true,
				},
				"documentSymbol": map[string]interface{}{
					"hierarchicalDocumentSymbolSupport": true,
				},
				"hover":       map[string]interface{}{},
				"definition":  map[string]interface{}{},
				"references":  map[string]interface{}{},
				"rename":      map[string]interface{}{},
				"callHierarchy": map[string]interface{}{},
				"typeHierarchy": map[string]interface{}{},
			},
			"workspace": map[string]interface{}{
				"workspaceEdit": map[string]interface{}{
					"documentChanges":    true,
					"resourceOperations": []string{"create", "rename", "delete"},
				},
			},
		},
	}

	var result json.RawMessage
	if err := client.SendRequest(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize handshake with %s: %w", w.LanguageID, err)
	}

	if err := client.SendNotification(ctx, "initialized", map[string]interface{}{}); err != nil {
		return fmt.Errorf("initialized notification to %s: %w", w.LanguageID, err)
	}

	return nil
}

// watchForDeath observes the client's death and marks the workspace
// stopped, per spec.md §5 back-pressure policy: "If the reader observes
// EOF ... marks the workspace stopped."
func (w *Workspace) watchForDeath(client *rpcclient.Client) {
	<-client.Done()
	w.mu.Lock()
	if w.client == client {
		w.state = StateStopped
	}
	w.mu.Unlock()
}

func (w *Workspace) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// WaitForServiceReady blocks until initialization completes or the child
// has died.
func (w *Workspace) WaitForServiceReady(ctx context.Context) error {
	w.mu.Lock()
	ready := w.ready
	client := w.client
	w.mu.Unlock()

	if ready == nil {
		return lspmuxerr.NewConnectionClosed("workspace %s/%s was never started", w.Root, w.LanguageID)
	}

	select {
	case <-ready:
		return nil
	case <-client.Done():
		return lspmuxerr.NewConnectionClosed("language server for %s exited before becoming ready: %v", w.LanguageID, client.Err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes all open documents then gracefully shuts the client down:
// `shutdown` request, `exit` notification, brief wait, forceful kill if
// the process has not exited — mirroring the teacher's DelveClient
// graceful-then-forceful termination pattern.
func (w *Workspace) Stop(ctx context.Context) error {
	w.mu.Lock()
	client := w.client
	docs := w.docs
	if client == nil {
		w.mu.Unlock()
		return nil
	}
	w.state = StateStopping
	w.mu.Unlock()

	if docs != nil {
		docs.closeAll(ctx)
	}

	_ = client.SendRequest(ctx, "shutdown", nil, nil)
	_ = client.SendNotification(ctx, "exit", nil)

	done := make(chan struct{})
	go func() {
		<-client.Done()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}

	err := client.Close()

	w.mu.Lock()
	w.client = nil
	w.docs = nil
	w.ready = nil
	w.state = StateStopped
	w.mu.Unlock()

	return err
}

// Restart is stop-then-start.
func (w *Workspace) Restart(ctx context.Context) error {
	if err := w.Stop(ctx); err != nil {
		return err
	}
	return w.Start(ctx)
}

// Client returns the workspace's JSON-RPC client: set once Start has
// spawned the server (before the handshake completes) and kept if the
// server later dies; nil before the first Start and after Stop.
func (w *Workspace) Client() *rpcclient.Client {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.client
}

// ServerName returns the configured server name for describeSession/error
// messages.
func (w *Workspace) ServerName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spec == nil {
		return w.LanguageID
	}
	return w.spec.Name
}

// Pid returns the child process id, 0 if not running.
func (w *Workspace) Pid() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client == nil {
		return 0
	}
	return w.client.Pid()
}

// OpenDocuments lists currently open document paths.
func (w *Workspace) OpenDocuments() []string {
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	if docs == nil {
		return nil
	}
	return docs.openPaths()
}

// IsUnderRoot reports whether path resolves to somewhere inside the
// workspace root; a workspace refuses to open documents outside it
// (spec.md §4.D).
func (w *Workspace) IsUnderRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rootAbs, err := filepath.Abs(w.Root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// EnsureDocumentOpen opens path if needed, refusing paths outside the
// workspace root.
func (w *Workspace) EnsureDocumentOpen(ctx context.Context, path string) (*Document, error) {
	if !w.IsUnderRoot(path) {
		return nil, lspmuxerr.NewInvalidInput("%s is outside workspace root %s", path, w.Root)
	}
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	if docs == nil {
		return nil, lspmuxerr.NewConnectionClosed("workspace %s/%s is not running", w.Root, w.LanguageID)
	}
	return docs.ensureOpen(ctx, path)
}

// CloseDocument closes path if open.
func (w *Workspace) CloseDocument(ctx context.Context, path string) error {
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	if docs == nil {
		return nil
	}
	return docs.close(ctx, path)
}

// UpdateDocumentText bumps the version of an open document and sends
// textDocument/didChange with the new full text, keeping the server's
// view consistent after something other than the editor (e.g. an applied
// rename) rewrites the file on disk. A no-op if path is not open.
func (w *Workspace) UpdateDocumentText(ctx context.Context, path, newText string) error {
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	if docs == nil {
		return nil
	}
	return docs.updateText(ctx, path, newText)
}

// IsDocumentOpen reports whether path currently has an open document.
func (w *Workspace) IsDocumentOpen(path string) bool {
	w.mu.Lock()
	docs := w.docs
	w.mu.Unlock()
	if docs == nil {
		return false
	}
	return docs.isOpen(path)
}

func requestTimeout() time.Duration {
	if v := os.Getenv("LSPCMD_REQUEST_TIMEOUT"); v != "" {
		if secs, err := parseSeconds(v); err == nil {
			return secs
		}
	}
	return rpcclient.DefaultRequestTimeout
}

func parseSeconds(v string) (time.Duration, error) {
	var secs float64
	if _, err := fmt.Sscanf(v, "%f", &secs); err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

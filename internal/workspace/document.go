package workspace

import (
	"context"
	"os"
	"sync"
	"time"

	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/rpcclient"
)

// Document is one file the workspace's language server has open, per
// spec.md §3: absolute path, language id, monotonic version starting at
// 1, current text and open timestamp.
type Document struct {
	Path       string
	URI        string
	LanguageID string
	Version    int
	Text       string
	OpenedAt   time.Time
}

// documentTracker is the per-workspace open-document set (component C).
// Its invariant (spec.md §4.C) is that the server's view of a document
// equals the in-memory text at the current version for every entry here.
type documentTracker struct {
	mu      sync.Mutex
	byPath  map[string]*Document
	client  *rpcclient.Client
	langID  string
}

func newDocumentTracker(client *rpcclient.Client, languageID string) *documentTracker {
	return &documentTracker{
		byPath: make(map[string]*Document),
		client: client,
		langID: languageID,
	}
}

// ensureOpen opens path if it is not already open; idempotent under
// concurrent callers racing on the same path (the mutex serializes the
// read-then-open sequence, so a second caller inside the lock simply
// observes the first's entry once it returns).
func (t *documentTracker) ensureOpen(ctx context.Context, path string) (*Document, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if doc, ok := t.byPath[path]; ok {
		return doc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, lspmuxerr.NewInvalidInput("reading %s: %v", path, err)
	}

	docURI := string(uri.File(path))
	doc := &Document{
		Path:       path,
		URI:        docURI,
		LanguageID: t.langID,
		Version:    1,
		Text:       string(content),
		OpenedAt:   time.Now(),
	}

	err = t.client.SendNotification(ctx, "textDocument/didOpen", map[string]interface{}{
		"textDocument": lsptypes.TextDocumentItem{
			URI:        docURI,
			LanguageID: t.langID,
			Version:    1,
			Text:       doc.Text,
		},
	})
	if err != nil {
		return nil, err
	}

	t.byPath[path] = doc
	return doc, nil
}

// updateText bumps the version and sends a full-document didChange; used
// when the edit applier mutates a file that happens to be open (spec.md
// §4.C: "simpler and sufficient for this workload" than incremental
// sync).
func (t *documentTracker) updateText(ctx context.Context, path, newText string) error {
	t.mu.Lock()
	doc, ok := t.byPath[path]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	doc.Version++
	doc.Text = newText
	version := doc.Version
	docURI := doc.URI
	t.mu.Unlock()

	return t.client.SendNotification(ctx, "textDocument/didChange", map[string]interface{}{
		"textDocument": lsptypes.VersionedTextDocumentIdentifier{URI: docURI, Version: version},
		"contentChanges": []map[string]string{
			{"text": newText},
		},
	})
}

// close notifies the server and drops the entry; a no-op if not open.
func (t *documentTracker) close(ctx context.Context, path string) error {
	t.mu.Lock()
	doc, ok := t.byPath[path]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	delete(t.byPath, path)
	t.mu.Unlock()

	return t.client.SendNotification(ctx, "textDocument/didClose", map[string]interface{}{
		"textDocument": lsptypes.TextDocumentIdentifier{URI: doc.URI},
	})
}

// closeAll closes every currently open document, used when the workspace
// stops.
func (t *documentTracker) closeAll(ctx context.Context) {
	t.mu.Lock()
	paths := make([]string, 0, len(t.byPath))
	for p := range t.byPath {
		paths = append(paths, p)
	}
	t.mu.Unlock()

	for _, p := range paths {
		_ = t.close(ctx, p)
	}
}

// isOpen reports whether path currently has an open document entry.
func (t *documentTracker) isOpen(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byPath[path]
	return ok
}

// openPaths returns a snapshot of currently open document paths.
func (t *documentTracker) openPaths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.byPath))
	for p := range t.byPath {
		paths = append(paths, p)
	}
	return paths
}

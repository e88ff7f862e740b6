package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lspmuxd/lspmuxd/internal/edits"
	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/workspace"
)

// RenameParams is the `rename` method's params.
type RenameParams struct {
	WorkspaceRoot string `json:"workspaceRoot"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
	NewName       string `json:"newName"`
}

// RenameResult is the `rename` method's result.
type RenameResult struct {
	FilesChanged []string `json:"filesChanged"`
}

// Rename sends textDocument/rename and applies the returned WorkspaceEdit
// via internal/edits, per
// original_source/lspcmd/daemon/handlers/rename.py's handle_rename.
func (d *Daemon) Rename(ctx context.Context, params RenameParams) (RenameResult, error) {
	if params.NewName == "" {
		return RenameResult{}, lspmuxerr.NewInvalidInput("newName is required")
	}

	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.Path)
	if err != nil {
		return RenameResult{}, err
	}

	var raw json.RawMessage
	err = ws.Client().SendRequest(ctx, "textDocument/rename", lsptypes.RenameParams{
		TextDocument: lsptypes.TextDocumentIdentifier{URI: doc.URI},
		Position:     lsptypes.PositionFromOneBasedLine(params.Line, params.Column),
		NewName:      params.NewName,
	}, &raw)
	if err != nil {
		return RenameResult{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return RenameResult{}, lspmuxerr.NewNotFound("no rename edit returned for %s:%d:%d", params.Path, params.Line, params.Column)
	}

	var edit lsptypes.WorkspaceEdit
	if err := json.Unmarshal(raw, &edit); err != nil {
		return RenameResult{}, lspmuxerr.NewProtocolError(err, "decoding rename WorkspaceEdit")
	}

	changed, err := edits.Apply(edit, params.WorkspaceRoot)
	if err != nil {
		return RenameResult{}, err
	}

	d.syncOpenDocuments(ctx, ws, params.WorkspaceRoot, changed)

	return RenameResult{FilesChanged: changed}, nil
}

// syncOpenDocuments keeps an edit-applying handler's touched files in
// sync with the server's view: for every path edits.Apply wrote to disk
// that also happens to be open in ws, it pushes the rewritten text via
// textDocument/didChange so the in-memory document never goes stale
// after a rename.
func (d *Daemon) syncOpenDocuments(ctx context.Context, ws *workspace.Workspace, workspaceRoot string, relPaths []string) {
	for _, rel := range relPaths {
		abs := filepath.Join(workspaceRoot, rel)
		if !ws.IsDocumentOpen(abs) {
			continue
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		_ = ws.UpdateDocumentText(ctx, abs, string(content))
	}
}

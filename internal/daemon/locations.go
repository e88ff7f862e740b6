package daemon

import (
	"context"
	"path/filepath"

	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/workspace"
)

// PositionParams is the common shape of `declaration`, `references`,
// `supertypes` and `subtypes`: a file position inside a workspace.
type PositionParams struct {
	WorkspaceRoot string `json:"workspaceRoot"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
}

// LocationResult is one formatted location: a workspace-relative path
// plus a one-based line and zero-based column, mirroring
// original_source/lspcmd/daemon/handlers/base.py's format_locations
// output shape as used by declaration.py/references.py.
type LocationResult struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// LocationsResult wraps a `declaration`/`references`/`supertypes`/
// `subtypes` response.
type LocationsResult struct {
	Locations []LocationResult `json:"locations"`
}

func (d *Daemon) openedPositionWorkspace(ctx context.Context, root, relPath string) (*workspace.Workspace, *workspace.Document, error) {
	lang, ok := d.cfg.LanguageForPath(relPath)
	if !ok {
		return nil, nil, lspmuxerr.NewInvalidInput("no configured language server for %q", relPath)
	}
	ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, root, lang)
	if err != nil {
		return nil, nil, err
	}
	if err := ws.WaitForServiceReady(ctx); err != nil {
		return nil, nil, err
	}
	absPath := filepath.Join(root, relPath)
	doc, err := ws.EnsureDocumentOpen(ctx, absPath)
	if err != nil {
		return nil, nil, err
	}
	return ws, doc, nil
}

// Declaration sends textDocument/declaration, mapping -32601 to
// MethodNotSupported per declaration.py.
func (d *Daemon) Declaration(ctx context.Context, params PositionParams) (LocationsResult, error) {
	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.Path)
	if err != nil {
		return LocationsResult{}, err
	}

	var raw interface{}
	err = ws.Client().SendRequest(ctx, "textDocument/declaration", lsptypes.TextDocumentPositionParams{
		TextDocument: lsptypes.TextDocumentIdentifier{URI: doc.URI},
		Position:     lsptypes.PositionFromOneBasedLine(params.Line, params.Column),
	}, &raw)
	if err != nil {
		// classifyCallError in internal/rpcclient already turns a -32601
		// response into lspmuxerr.KindMethodNotSupported; nothing further
		// to translate here.
		return LocationsResult{}, err
	}

	return LocationsResult{Locations: formatLocations(raw, params.WorkspaceRoot)}, nil
}

// References sends textDocument/references with includeDeclaration=true,
// per references.py.
func (d *Daemon) References(ctx context.Context, params PositionParams) (LocationsResult, error) {
	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.Path)
	if err != nil {
		return LocationsResult{}, err
	}

	var raw interface{}
	err = ws.Client().SendRequest(ctx, "textDocument/references", lsptypes.ReferenceParams{
		TextDocument: lsptypes.TextDocumentIdentifier{URI: doc.URI},
		Position:     lsptypes.PositionFromOneBasedLine(params.Line, params.Column),
		Context:      lsptypes.ReferenceContext{IncludeDeclaration: true},
	}, &raw)
	if err != nil {
		return LocationsResult{}, err
	}

	return LocationsResult{Locations: formatLocations(raw, params.WorkspaceRoot)}, nil
}

// formatLocations normalizes either a Location[] or LocationLink[]
// response (or a null/absent result) into workspace-relative
// LocationResults.
func formatLocations(raw interface{}, root string) []LocationResult {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []LocationResult
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		var uriStr string
		var line, col int
		if u, ok := m["uri"].(string); ok {
			uriStr = u
			if rng, ok := m["range"].(map[string]interface{}); ok {
				line, col = positionFromRange(rng)
			}
		} else if tu, ok := m["targetUri"].(string); ok {
			uriStr = tu
			if rng, ok := m["targetSelectionRange"].(map[string]interface{}); ok {
				line, col = positionFromRange(rng)
			} else if rng, ok := m["targetRange"].(map[string]interface{}); ok {
				line, col = positionFromRange(rng)
			}
		} else {
			continue
		}

		path := uri.URI(uriStr).Filename()
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out = append(out, LocationResult{Path: filepath.ToSlash(rel), Line: line + 1, Column: col})
	}
	return out
}

func positionFromRange(rng map[string]interface{}) (line, col int) {
	start, ok := rng["start"].(map[string]interface{})
	if !ok {
		return 0, 0
	}
	return toIntField(start["line"]), toIntField(start["character"])
}

func toIntField(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

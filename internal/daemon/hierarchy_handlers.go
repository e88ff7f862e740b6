package daemon

import (
	"context"
	"strconv"

	"github.com/lspmuxd/lspmuxd/internal/hierarchy"
	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
)

func itoa(n int) string { return strconv.Itoa(n) }

func pathToCallNodes(items []lsptypes.CallHierarchyItem, root string) []hierarchy.CallNode {
	out := make([]hierarchy.CallNode, 0, len(items))
	for _, item := range items {
		out = append(out, hierarchy.FormatItem(item, root))
	}
	return out
}

// Supertypes prepares a type hierarchy item at the given position and
// walks typeHierarchy/supertypes, per
// original_source/lspcmd/daemon/handlers/supertypes.py.
func (d *Daemon) Supertypes(ctx context.Context, params PositionParams) (LocationsResult, error) {
	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.Path)
	if err != nil {
		return LocationsResult{}, err
	}

	item, err := hierarchy.PrepareTypeHierarchy(ctx, ws.Client(), doc.URI, params.Line, params.Column)
	if err != nil {
		return LocationsResult{}, err
	}
	if item == nil {
		return LocationsResult{}, lspmuxerr.NewNotFound("no type at %s:%d:%d", params.Path, params.Line, params.Column)
	}

	locs, err := hierarchy.Supertypes(ctx, ws.Client(), params.WorkspaceRoot, *item)
	if err != nil {
		return LocationsResult{}, err
	}
	return LocationsResult{Locations: typeLocationsToResults(locs)}, nil
}

// Subtypes mirrors Supertypes over typeHierarchy/subtypes, per
// original_source/lspcmd/daemon/handlers/subtypes.py.
func (d *Daemon) Subtypes(ctx context.Context, params PositionParams) (LocationsResult, error) {
	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.Path)
	if err != nil {
		return LocationsResult{}, err
	}

	item, err := hierarchy.PrepareTypeHierarchy(ctx, ws.Client(), doc.URI, params.Line, params.Column)
	if err != nil {
		return LocationsResult{}, err
	}
	if item == nil {
		return LocationsResult{}, lspmuxerr.NewNotFound("no type at %s:%d:%d", params.Path, params.Line, params.Column)
	}

	locs, err := hierarchy.Subtypes(ctx, ws.Client(), params.WorkspaceRoot, *item)
	if err != nil {
		return LocationsResult{}, err
	}
	return LocationsResult{Locations: typeLocationsToResults(locs)}, nil
}

func typeLocationsToResults(locs []hierarchy.TypeLocation) []LocationResult {
	out := make([]LocationResult, 0, len(locs))
	for _, l := range locs {
		out = append(out, LocationResult{Path: l.Path, Line: l.Line, Column: l.Column})
	}
	return out
}

// CallEndpoint names one (path, line, column) position for `calls`.
type CallEndpoint struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// CallsParams is the `calls` method's params: mode selects which of From
// / (From,To) is meaningful, per spec.md §6.
type CallsParams struct {
	WorkspaceRoot       string       `json:"workspaceRoot"`
	Mode                string       `json:"mode"`
	From                CallEndpoint `json:"from"`
	To                  CallEndpoint `json:"to"`
	MaxDepth            int          `json:"maxDepth"`
	IncludeNonWorkspace bool         `json:"includeNonWorkspace"`
}

// CallsResult is the `calls` method's result: exactly one of Root, Path
// or Message is populated depending on Mode.
type CallsResult struct {
	Root    *hierarchy.CallNode  `json:"root,omitempty"`
	Path    []hierarchy.CallNode `json:"path,omitempty"`
	Message string               `json:"message,omitempty"`
}

const defaultCallDepth = 5

// Calls dispatches to outgoing/incoming tree expansion or pathBetween
// BFS, per spec.md §4.J.
func (d *Daemon) Calls(ctx context.Context, params CallsParams) (CallsResult, error) {
	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultCallDepth
	}

	ws, doc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.From.Path)
	if err != nil {
		return CallsResult{}, err
	}

	fromItem, err := hierarchy.PrepareCallHierarchy(ctx, ws.Client(), doc.URI, params.From.Line, params.From.Column)
	if err != nil {
		return CallsResult{}, err
	}
	if fromItem == nil {
		return CallsResult{}, lspmuxerr.NewNotFound("no callable symbol at %s:%d:%d", params.From.Path, params.From.Line, params.From.Column)
	}

	switch params.Mode {
	case "outgoing":
		root, err := hierarchy.OutgoingTree(ctx, ws.Client(), params.WorkspaceRoot, *fromItem, maxDepth, params.IncludeNonWorkspace)
		if err != nil {
			return CallsResult{}, err
		}
		return CallsResult{Root: root}, nil

	case "incoming":
		root, err := hierarchy.IncomingTree(ctx, ws.Client(), params.WorkspaceRoot, *fromItem, maxDepth, params.IncludeNonWorkspace)
		if err != nil {
			return CallsResult{}, err
		}
		return CallsResult{Root: root}, nil

	case "pathBetween":
		toWs, toDoc, err := d.openedPositionWorkspace(ctx, params.WorkspaceRoot, params.To.Path)
		if err != nil {
			return CallsResult{}, err
		}
		toItem, err := hierarchy.PrepareCallHierarchy(ctx, toWs.Client(), toDoc.URI, params.To.Line, params.To.Column)
		if err != nil {
			return CallsResult{}, err
		}
		if toItem == nil {
			return CallsResult{}, lspmuxerr.NewNotFound("no callable symbol at %s:%d:%d", params.To.Path, params.To.Line, params.To.Column)
		}

		path, err := hierarchy.FindCallPath(ctx, ws.Client(), params.WorkspaceRoot, *fromItem, *toItem, maxDepth, params.IncludeNonWorkspace)
		if err != nil {
			return CallsResult{}, err
		}
		if path == nil {
			return CallsResult{Message: "no path within depth " + itoa(maxDepth)}, nil
		}
		return CallsResult{Path: pathToCallNodes(path, params.WorkspaceRoot)}, nil

	default:
		return CallsResult{}, lspmuxerr.NewInvalidInput("unknown calls mode %q", params.Mode)
	}
}

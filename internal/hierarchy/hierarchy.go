// Package hierarchy implements component J from spec.md §4.J: the
// call-hierarchy and type-hierarchy tree walkers, a direct Go port of
// original_source/lspcmd/daemon/handlers/calls.py (outgoing/incoming
// DFS, BFS path search) generalized to the analogous
// typeHierarchy/supertypes and typeHierarchy/subtypes walk.
package hierarchy

import (
	"context"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/rpcclient"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

// CallNode is one node of a formatted call tree, mirroring the
// original's FormattedCallItem.
type CallNode struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Path       string      `json:"path,omitempty"`
	Line       int         `json:"line,omitempty"`
	Column     int         `json:"column,omitempty"`
	Calls      []*CallNode `json:"calls,omitempty"`
	CalledBy   []*CallNode `json:"calledBy,omitempty"`
	FromRanges []LineCol   `json:"fromRanges,omitempty"`
	CallSites  []LineCol   `json:"callSites,omitempty"`
}

// LineCol is a one-based line / zero-based column pair.
type LineCol struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// visitedKey cuts cycles the way the original's (uri, selectionLine)
// tuple set does.
type visitedKey struct {
	uri  string
	line int
}

func keyOf(item lsptypes.CallHierarchyItem) visitedKey {
	return visitedKey{uri: item.URI, line: item.SelectionRange.Start.Line}
}

// PrepareCallHierarchy sends textDocument/prepareCallHierarchy and
// returns the first (and only meaningful) result item, or nil if the
// position names no callable symbol.
func PrepareCallHierarchy(ctx context.Context, client *rpcclient.Client, docURI string, line, column int) (*lsptypes.CallHierarchyItem, error) {
	var result []lsptypes.CallHierarchyItem
	err := client.SendRequest(ctx, "textDocument/prepareCallHierarchy", map[string]interface{}{
		"textDocument": lsptypes.TextDocumentIdentifier{URI: docURI},
		"position":     lsptypes.PositionFromOneBasedLine(line, column),
	}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			return nil, lspmuxerr.NewMethodNotSupported("textDocument/prepareCallHierarchy", client.Name())
		}
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// isPathInWorkspace reports whether a file URI resolves to a path inside
// root and not under one of symbols.ExcludedDirs.
func isPathInWorkspace(fileURI string, root string) bool {
	path := uri.URI(fileURI).Filename()
	if path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return !symbols.IsExcluded(rel)
}

// FormatItem renders a prepared CallHierarchyItem as a root-less CallNode
// (no Calls/CalledBy populated), for callers that need to present a
// path of items rather than a tree, e.g. a pathBetween result.
func FormatItem(item lsptypes.CallHierarchyItem, root string) CallNode {
	return formatItem(item, root)
}

func formatItem(item lsptypes.CallHierarchyItem, root string) CallNode {
	path := uri.URI(item.URI).Filename()
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return CallNode{
		Name:   item.Name,
		Kind:   item.Kind.String(),
		Detail: item.Detail,
		Path:   rel,
		Line:   item.SelectionRange.Start.Line + 1,
		Column: item.SelectionRange.Start.Character,
	}
}

// OutgoingTree builds the root node plus its outgoing-call descendants to
// maxDepth, cutting cycles via a shared visited set.
func OutgoingTree(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.CallHierarchyItem, maxDepth int, includeNonWorkspace bool) (*CallNode, error) {
	node := formatItem(item, root)
	calls, err := expandOutgoing(ctx, client, root, item, maxDepth, map[visitedKey]bool{}, includeNonWorkspace, true)
	if err != nil {
		return nil, err
	}
	node.Calls = calls
	return &node, nil
}

func expandOutgoing(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.CallHierarchyItem, depth int, visited map[visitedKey]bool, includeNonWorkspace, isRoot bool) ([]*CallNode, error) {
	if depth <= 0 {
		return nil, nil
	}
	k := keyOf(item)
	if visited[k] {
		return nil, nil
	}
	visited[k] = true

	var result []lsptypes.CallHierarchyOutgoingCall
	err := client.SendRequest(ctx, "callHierarchy/outgoingCalls", map[string]interface{}{"item": item}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			if isRoot {
				return nil, lspmuxerr.NewMethodNotSupported("callHierarchy/outgoingCalls", client.Name())
			}
			return nil, nil
		}
		return nil, err
	}

	var calls []*CallNode
	for _, call := range result {
		if !includeNonWorkspace && !isPathInWorkspace(call.To.URI, root) {
			continue
		}
		node := formatItem(call.To, root)
		for _, r := range call.FromRanges {
			node.FromRanges = append(node.FromRanges, LineCol{Line: r.Start.Line + 1, Column: r.Start.Character})
		}
		children, err := expandOutgoing(ctx, client, root, call.To, depth-1, visited, includeNonWorkspace, false)
		if err != nil {
			return nil, err
		}
		node.Calls = children
		calls = append(calls, &node)
	}
	return calls, nil
}

// IncomingTree builds the root node plus its incoming-call (callers)
// ancestors to maxDepth.
func IncomingTree(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.CallHierarchyItem, maxDepth int, includeNonWorkspace bool) (*CallNode, error) {
	node := formatItem(item, root)
	callers, err := expandIncoming(ctx, client, root, item, maxDepth, map[visitedKey]bool{}, includeNonWorkspace, true)
	if err != nil {
		return nil, err
	}
	node.CalledBy = callers
	return &node, nil
}

func expandIncoming(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.CallHierarchyItem, depth int, visited map[visitedKey]bool, includeNonWorkspace, isRoot bool) ([]*CallNode, error) {
	if depth <= 0 {
		return nil, nil
	}
	k := keyOf(item)
	if visited[k] {
		return nil, nil
	}
	visited[k] = true

	var result []lsptypes.CallHierarchyIncomingCall
	err := client.SendRequest(ctx, "callHierarchy/incomingCalls", map[string]interface{}{"item": item}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			if isRoot {
				return nil, lspmuxerr.NewMethodNotSupported("callHierarchy/incomingCalls", client.Name())
			}
			return nil, nil
		}
		return nil, err
	}

	var callers []*CallNode
	for _, call := range result {
		if !includeNonWorkspace && !isPathInWorkspace(call.From.URI, root) {
			continue
		}
		node := formatItem(call.From, root)
		for _, r := range call.FromRanges {
			node.CallSites = append(node.CallSites, LineCol{Line: r.Start.Line + 1, Column: r.Start.Character})
		}
		children, err := expandIncoming(ctx, client, root, call.From, depth-1, visited, includeNonWorkspace, false)
		if err != nil {
			return nil, err
		}
		node.CalledBy = children
		callers = append(callers, &node)
	}
	return callers, nil
}

// TypeLocation is one entry in a supertypes/subtypes result.
type TypeLocation struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// PrepareTypeHierarchy sends textDocument/prepareTypeHierarchy and
// returns the first result item, or nil if the position names no type.
func PrepareTypeHierarchy(ctx context.Context, client *rpcclient.Client, docURI string, line, column int) (*lsptypes.TypeHierarchyItem, error) {
	var result []lsptypes.TypeHierarchyItem
	err := client.SendRequest(ctx, "textDocument/prepareTypeHierarchy", map[string]interface{}{
		"textDocument": lsptypes.TextDocumentIdentifier{URI: docURI},
		"position":     lsptypes.PositionFromOneBasedLine(line, column),
	}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			return nil, lspmuxerr.NewMethodNotSupported("textDocument/prepareTypeHierarchy", client.Name())
		}
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// Supertypes sends typeHierarchy/supertypes for a prepared item.
func Supertypes(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.TypeHierarchyItem) ([]TypeLocation, error) {
	var result []lsptypes.TypeHierarchyItem
	err := client.SendRequest(ctx, "typeHierarchy/supertypes", lsptypes.TypeHierarchyItemParams{Item: item}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			return nil, lspmuxerr.NewMethodNotSupported("typeHierarchy/supertypes", client.Name())
		}
		return nil, err
	}
	return formatTypeItems(result, root), nil
}

// Subtypes sends typeHierarchy/subtypes for a prepared item.
func Subtypes(ctx context.Context, client *rpcclient.Client, root string, item lsptypes.TypeHierarchyItem) ([]TypeLocation, error) {
	var result []lsptypes.TypeHierarchyItem
	err := client.SendRequest(ctx, "typeHierarchy/subtypes", lsptypes.TypeHierarchyItemParams{Item: item}, &result)
	if err != nil {
		if lspmuxerr.IsMethodNotSupportedErr(err) {
			return nil, lspmuxerr.NewMethodNotSupported("typeHierarchy/subtypes", client.Name())
		}
		return nil, err
	}
	return formatTypeItems(result, root), nil
}

func formatTypeItems(items []lsptypes.TypeHierarchyItem, root string) []TypeLocation {
	out := make([]TypeLocation, 0, len(items))
	for _, item := range items {
		path := uri.URI(item.URI).Filename()
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out = append(out, TypeLocation{
			Name:   item.Name,
			Kind:   item.Kind.String(),
			Detail: item.Detail,
			Path:   rel,
			Line:   item.SelectionRange.Start.Line + 1,
			Column: item.SelectionRange.Start.Character,
		})
	}
	return out
}

// FindCallPath runs a breadth-first search over outgoing calls from
// fromItem looking for toItem, bounded by maxDepth, returning the path
// (inclusive of both ends) if found.
func FindCallPath(ctx context.Context, client *rpcclient.Client, root string, fromItem, toItem lsptypes.CallHierarchyItem, maxDepth int, includeNonWorkspace bool) ([]lsptypes.CallHierarchyItem, error) {
	targetKey := keyOf(toItem)

	type queued struct {
		item  lsptypes.CallHierarchyItem
		path  []lsptypes.CallHierarchyItem
		depth int
	}

	queue := []queued{{item: fromItem, path: []lsptypes.CallHierarchyItem{fromItem}, depth: 0}}
	visited := map[visitedKey]bool{keyOf(fromItem): true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		var result []lsptypes.CallHierarchyOutgoingCall
		if err := client.SendRequest(ctx, "callHierarchy/outgoingCalls", map[string]interface{}{"item": cur.item}, &result); err != nil {
			continue
		}

		for _, call := range result {
			if !includeNonWorkspace && !isPathInWorkspace(call.To.URI, root) {
				continue
			}
			k := keyOf(call.To)
			if k == targetKey {
				return append(append([]lsptypes.CallHierarchyItem{}, cur.path...), call.To), nil
			}
			if !visited[k] {
				visited[k] = true
				newPath := append(append([]lsptypes.CallHierarchyItem{}, cur.path...), call.To)
				queue = append(queue, queued{item: call.To, path: newPath, depth: cur.depth + 1})
			}
		}
	}

	return nil, nil
}

package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
)

func TestIsPathInWorkspace(t *testing.T) {
	root := "/workspace"
	assert.True(t, isPathInWorkspace(string(uri.File("/workspace/pkg/foo.go")), root))
	assert.False(t, isPathInWorkspace(string(uri.File("/workspace/node_modules/x.js")), root))
	assert.False(t, isPathInWorkspace(string(uri.File("/elsewhere/foo.go")), root))
}

func TestFormatItem(t *testing.T) {
	item := lsptypes.CallHierarchyItem{
		Name: "DoThing",
		Kind: lsptypes.SymbolKindFunction,
		URI:  string(uri.File("/workspace/pkg/foo.go")),
		SelectionRange: lsptypes.Range{
			Start: lsptypes.Position{Line: 9, Character: 4},
			End:   lsptypes.Position{Line: 9, Character: 11},
		},
	}
	node := formatItem(item, "/workspace")
	assert.Equal(t, "DoThing", node.Name)
	assert.Equal(t, "Function", node.Kind)
	assert.Equal(t, "pkg/foo.go", node.Path)
	assert.Equal(t, 10, node.Line)
	assert.Equal(t, 4, node.Column)
}

func TestFormatTypeItems(t *testing.T) {
	items := []lsptypes.TypeHierarchyItem{
		{
			Name: "Base",
			Kind: lsptypes.SymbolKindInterface,
			URI:  string(uri.File("/workspace/pkg/base.go")),
			SelectionRange: lsptypes.Range{
				Start: lsptypes.Position{Line: 2, Character: 5},
			},
		},
	}
	locs := formatTypeItems(items, "/workspace")
	assert.Len(t, locs, 1)
	assert.Equal(t, "Base", locs[0].Name)
	assert.Equal(t, "Interface", locs[0].Kind)
	assert.Equal(t, "pkg/base.go", locs[0].Path)
	assert.Equal(t, 3, locs[0].Line)
}

func TestKeyOf_DistinguishesByLine(t *testing.T) {
	a := lsptypes.CallHierarchyItem{URI: "file:///a.go", SelectionRange: lsptypes.Range{Start: lsptypes.Position{Line: 1}}}
	b := lsptypes.CallHierarchyItem{URI: "file:///a.go", SelectionRange: lsptypes.Range{Start: lsptypes.Position{Line: 2}}}
	assert.NotEqual(t, keyOf(a), keyOf(b))
}

// OutgoingTree/IncomingTree/FindCallPath, along with
// PrepareCallHierarchy/PrepareTypeHierarchy, all drive a live
// client.SendRequest round trip against a real language server, so the
// wire exchange itself is left untested here; no such integration test
// exists elsewhere in this repo either. Their one-based-to-LSP-Position
// conversion no longer depends on that boundary: every one of them
// builds its Position via lsptypes.PositionFromOneBasedLine, pinned
// directly by internal/lsptypes's TestPositionFromOneBasedLine.
func TestOutgoingIncomingCallPath_RequiresRealLanguageServer(t *testing.T) {
	t.Skip("OutgoingTree/IncomingTree/FindCallPath/PrepareCallHierarchy/PrepareTypeHierarchy drive a live client.SendRequest round trip against a real language server.")
}

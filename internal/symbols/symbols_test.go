package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbolName(t *testing.T) {
	cases := map[string]string{
		"fn(args)":        "fn",
		"(*Recv).Method":  "Method",
		"(Recv).Method":   "Method",
		"User:isAdult":    "isAdult",
		"User.new":        "new",
		"plainName":       "plainName",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeSymbolName(input), "input %q", input)
	}
}

func TestNormalizeContainer(t *testing.T) {
	cases := map[string]string{
		"(*T)":                    "T",
		"(T)":                     "T",
		"impl Trait for T":        "T",
		"impl<X> Trait<X> for T":  "impl<X> Trait<X> for T", // doesn't match the leading-impl pattern's \w+ generic form
		"impl T":                  "T",
		"SomeNamespace":           "SomeNamespace",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeContainer(input), "input %q", input)
	}
}

func TestEffectiveContainer_FallsBackToReceiverInName(t *testing.T) {
	rec := Record{Name: "(*Handler).ServeHTTP"}
	assert.Equal(t, "Handler", EffectiveContainer(rec))

	rec2 := Record{Container: "(*Foo)"}
	assert.Equal(t, "Foo", EffectiveContainer(rec2))

	rec3 := Record{Name: "plain"}
	assert.Equal(t, "", EffectiveContainer(rec3))
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "resolve_symbol", ModuleName("handlers/resolve_symbol.py"))
}

func TestNameMatches(t *testing.T) {
	assert.True(t, NameMatches("fn(args)", "fn"))
	assert.True(t, NameMatches("method", "method"))
	assert.False(t, NameMatches("other", "method"))
}

func TestIsExcluded(t *testing.T) {
	assert.True(t, IsExcluded("node_modules/left-pad/index.js"))
	assert.True(t, IsExcluded("pkg/vendor/lib.go"))
	assert.False(t, IsExcluded("pkg/lib.go"))
}

func TestWalkWorkspaceFiles_SkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.js"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0644))

	files, err := WalkWorkspaceFiles(root)
	require.NoError(t, err)
	assert.Contains(t, files, "main.go")
	assert.NotContains(t, files, filepath.Join("node_modules", "x.js"))
}

func TestFlatten_HierarchicalDocumentSymbol(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"name": "MyClass",
			"kind": float64(5),
			"selectionRange": map[string]interface{}{
				"start": map[string]interface{}{"line": float64(2), "character": float64(0)},
				"end":   map[string]interface{}{"line": float64(2), "character": float64(7)},
			},
			"range": map[string]interface{}{
				"start": map[string]interface{}{"line": float64(2), "character": float64(0)},
				"end":   map[string]interface{}{"line": float64(10), "character": float64(1)},
			},
			"children": []interface{}{
				map[string]interface{}{
					"name": "method",
					"kind": float64(6),
					"selectionRange": map[string]interface{}{
						"start": map[string]interface{}{"line": float64(3), "character": float64(4)},
						"end":   map[string]interface{}{"line": float64(3), "character": float64(10)},
					},
					"range": map[string]interface{}{
						"start": map[string]interface{}{"line": float64(3), "character": float64(4)},
						"end":   map[string]interface{}{"line": float64(5), "character": float64(5)},
					},
				},
			},
		},
	}

	records := flatten(raw, "pkg/foo.go")
	require.Len(t, records, 2)
	assert.Equal(t, "MyClass", records[0].Name)
	assert.Equal(t, 3, records[0].Line)
	assert.Equal(t, "method", records[1].Name)
	assert.Equal(t, "MyClass", records[1].Container)
}

func TestFlatten_SymbolInformation(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"name":          "helper",
			"kind":          float64(12),
			"containerName": "Utils",
			"location": map[string]interface{}{
				"range": map[string]interface{}{
					"start": map[string]interface{}{"line": float64(8), "character": float64(0)},
					"end":   map[string]interface{}{"line": float64(9), "character": float64(1)},
				},
			},
		},
	}

	records := flatten(raw, "pkg/util.go")
	require.Len(t, records, 1)
	assert.Equal(t, "helper", records[0].Name)
	assert.Equal(t, "Utils", records[0].Container)
	assert.Equal(t, 9, records[0].Line)
}

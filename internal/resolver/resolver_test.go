package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

func TestParseRef(t *testing.T) {
	r, err := ParseRef("foo.bar")
	require.NoError(t, err)
	assert.Equal(t, Ref{Dotted: "foo.bar"}, r)

	r, err = ParseRef("pkg/*.go:foo.bar")
	require.NoError(t, err)
	assert.Equal(t, Ref{PathGlob: "pkg/*.go", Dotted: "foo.bar"}, r)

	r, err = ParseRef("pkg/file.go:42:foo")
	require.NoError(t, err)
	assert.Equal(t, Ref{PathGlob: "pkg/file.go", Line: 42, Dotted: "foo"}, r)

	_, err = ParseRef("pkg/file.go:notanumber:foo")
	require.Error(t, err)

	_, err = ParseRef("a:b:c:d")
	require.Error(t, err)
}

func recordsFixture() []symbols.Record {
	return []symbols.Record{
		{Name: "NewClient", Kind: lsptypes.SymbolKindFunction, Path: "pkg/client.go", Line: 10, Container: ""},
		{Name: "(*Client).Do", Kind: lsptypes.SymbolKindMethod, Path: "pkg/client.go", Line: 20, Container: "Client"},
		{Name: "Client", Kind: lsptypes.SymbolKindStruct, Path: "pkg/client.go", Line: 5, Container: ""},
		{Name: "Do", Kind: lsptypes.SymbolKindMethod, Path: "pkg/other.go", Line: 30, Container: "Server"},
	}
}

func TestResolve_ExactSinglePart(t *testing.T) {
	res, err := Resolve("NewClient", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, Exact, res.Disposition)
	assert.Equal(t, "/root/pkg/client.go", res.Path)
	assert.Equal(t, 10, res.Line)
}

func TestResolve_ExactWithContainer(t *testing.T) {
	res, err := Resolve("Client.Do", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, Exact, res.Disposition)
	assert.Equal(t, 20, res.Line)
}

func TestResolve_AmbiguousAcrossContainers(t *testing.T) {
	res, err := Resolve("Do", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, Ambiguous, res.Disposition)
	assert.Equal(t, 2, res.TotalCount)
	for _, c := range res.Candidates {
		assert.NotEmpty(t, c.Ref)
	}
}

func TestResolve_NotFound(t *testing.T) {
	res, err := Resolve("NoSuchSymbol", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Disposition)
	assert.Contains(t, res.Error, "not found")
}

func TestResolve_PathFilter(t *testing.T) {
	res, err := Resolve("pkg/other.go:Do", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, Exact, res.Disposition)
	assert.Equal(t, "/root/pkg/other.go", res.Path)
}

func TestResolve_LineFilter(t *testing.T) {
	res, err := Resolve("pkg/client.go:5:Client", "/root", recordsFixture())
	require.NoError(t, err)
	assert.Equal(t, Exact, res.Disposition)
	assert.Equal(t, 5, res.Line)
}

func TestPathMatches(t *testing.T) {
	assert.True(t, pathMatches("pkg/sub/file.go", "file.go"))
	assert.True(t, pathMatches("pkg/sub/file.go", "sub"))
	assert.True(t, pathMatches("pkg/sub/file.go", "pkg/**"))
	assert.False(t, pathMatches("pkg/sub/file.go", "other.go"))
}

func TestApplyKindPreference_NarrowsToStructWhenAmbiguous(t *testing.T) {
	matches := []symbols.Record{
		{Name: "Client", Kind: lsptypes.SymbolKindStruct},
		{Name: "Client", Kind: lsptypes.SymbolKindVariable},
	}
	narrowed := applyKindPreference(matches)
	require.Len(t, narrowed, 1)
	assert.Equal(t, lsptypes.SymbolKindStruct, narrowed[0].Kind)
}

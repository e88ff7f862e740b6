package edits

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
)

func TestApplyTextEdits_SingleLineReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("hello world\n"), 0644))

	err := applyTextEdits(path, []lsptypes.TextEdit{
		{
			Range: lsptypes.Range{
				Start: lsptypes.Position{Line: 0, Character: 6},
				End:   lsptypes.Position{Line: 0, Character: 11},
			},
			NewText: "there",
		},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello there\n", string(out))
}

func TestApplyTextEdits_ReverseOrderMultipleEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("line0\nline1\nline2\n"), 0644))

	err := applyTextEdits(path, []lsptypes.TextEdit{
		{
			Range:   lsptypes.Range{Start: lsptypes.Position{Line: 0, Character: 0}, End: lsptypes.Position{Line: 0, Character: 5}},
			NewText: "LINE0",
		},
		{
			Range:   lsptypes.Range{Start: lsptypes.Position{Line: 2, Character: 0}, End: lsptypes.Position{Line: 2, Character: 5}},
			NewText: "LINE2",
		},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "LINE0\nline1\nLINE2\n", string(out))
}

func TestApplyTextEdits_MultiLineSplice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("func foo() {\n\tx := 1\n}\n"), 0644))

	err := applyTextEdits(path, []lsptypes.TextEdit{
		{
			Range:   lsptypes.Range{Start: lsptypes.Position{Line: 0, Character: 5}, End: lsptypes.Position{Line: 1, Character: 7}},
			NewText: "bar() {\n\tx := 2",
		},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "func bar() {\n\tx := 2\n}\n", string(out))
}

func TestApplyTextEdits_PadsMissingTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("noeof"), 0644))

	err := applyTextEdits(path, []lsptypes.TextEdit{
		{
			Range:   lsptypes.Range{Start: lsptypes.Position{Line: 0, Character: 5}, End: lsptypes.Position{Line: 0, Character: 5}},
			NewText: "!",
		},
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "noeof!\n", string(out))
}

func TestApply_CreateRenameDelete(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.go")
	require.NoError(t, os.WriteFile(oldPath, []byte("package a\n"), 0644))
	deletePath := filepath.Join(dir, "gone.go")
	require.NoError(t, os.WriteFile(deletePath, []byte("package a\n"), 0644))
	newPath := filepath.Join(dir, "new.go")
	createPath := filepath.Join(dir, "created.go")

	edit := lsptypes.WorkspaceEdit{
		DocumentChanges: []lsptypes.DocumentChange{
			{Kind: lsptypes.DocumentChangeKindCreate, Create: &lsptypes.CreateFile{Kind: "create", URI: string(uri.File(createPath))}},
			{Kind: lsptypes.DocumentChangeKindRename, Rename: &lsptypes.RenameFile{Kind: "rename", OldURI: string(uri.File(oldPath)), NewURI: string(uri.File(newPath))}},
			{Kind: lsptypes.DocumentChangeKindDelete, Delete: &lsptypes.DeleteFile{Kind: "delete", URI: string(uri.File(deletePath))}},
		},
	}

	touched, err := Apply(edit, dir)
	require.NoError(t, err)
	assert.Len(t, touched, 3)

	_, err = os.Stat(createPath)
	assert.NoError(t, err)
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(deletePath)
	assert.True(t, os.IsNotExist(err))
}

func TestApply_ChangesMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package old\n"), 0644))

	edit := lsptypes.WorkspaceEdit{
		Changes: map[string][]lsptypes.TextEdit{
			string(uri.File(path)): {
				{
					Range:   lsptypes.Range{Start: lsptypes.Position{Line: 0, Character: 8}, End: lsptypes.Position{Line: 0, Character: 11}},
					NewText: "new",
				},
			},
		},
	}

	touched, err := Apply(edit, dir)
	require.NoError(t, err)
	require.Len(t, touched, 1)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package new\n", string(out))
}

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
)

func testConfig() *serverconfig.Config {
	return &serverconfig.Config{Servers: map[string]serverconfig.ServerSpec{
		"go": {Name: "gopls", Command: "/nonexistent/gopls-stub", Extensions: []string{".go"}},
	}}
}

func newTestDaemon() *Daemon {
	return New(testConfig(), zap.NewNop(), Options{})
}

func TestRestartWorkspace_RequiresRoot(t *testing.T) {
	d := newTestDaemon()
	_, err := d.RestartWorkspace(context.Background(), WorkspaceRootParams{})
	require.Error(t, err)
}

func TestRestartWorkspace_NotFoundWhenNoSourceFiles(t *testing.T) {
	d := newTestDaemon()
	root := t.TempDir()
	_, err := d.RestartWorkspace(context.Background(), WorkspaceRootParams{WorkspaceRoot: root})
	require.Error(t, err)
}

func TestRemoveWorkspace_NoopWhenAbsent(t *testing.T) {
	d := newTestDaemon()
	_, err := d.RemoveWorkspace(context.Background(), WorkspaceRootParams{WorkspaceRoot: "/nowhere"})
	require.NoError(t, err)
}

func TestDescribeSession_EmptyInitially(t *testing.T) {
	d := newTestDaemon()
	info, err := d.DescribeSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.Workspaces)
	assert.Equal(t, 0, info.Caches["hoverCache"].CurrentBytes)
	assert.Equal(t, DefaultHoverCacheBytes, info.Caches["hoverCache"].MaxBytes)
	assert.Equal(t, DefaultSymbolCacheBytes, info.Caches["symbolCache"].MaxBytes)
}

func TestShutdownHandler_ReportsShuttingDown(t *testing.T) {
	d := newTestDaemon()
	result, err := d.ShutdownHandler(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shuttingDown", result.Status)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d := newTestDaemon()
	_, err := d.Dispatch(context.Background(), "notAMethod", nil)
	require.Error(t, err)
}

func TestDispatch_DescribeSession(t *testing.T) {
	d := newTestDaemon()
	result, err := d.Dispatch(context.Background(), "describeSession", nil)
	require.NoError(t, err)
	_, ok := result.(DescribeSessionResult)
	assert.True(t, ok)
}

func TestFiles_CountsLinesAndBytesAndSkipsBinaries(t *testing.T) {
	d := newTestDaemon()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "logo.png"), []byte{0x89, 0x50, 0x4e, 0x47}, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "skip.go"), []byte("package vendor\n"), 0644))

	result, err := d.Files(context.Background(), FilesParams{WorkspaceRoot: root})
	require.NoError(t, err)

	assert.Contains(t, result.Files, "main.go")
	assert.NotContains(t, result.Files, "logo.png")
	assert.NotContains(t, result.Files, "vendor/skip.go")
	assert.Equal(t, 3, result.Files["main.go"].Lines)
	assert.Equal(t, 1, result.Totals.TotalFiles)
}

func TestFiles_RequiresRoot(t *testing.T) {
	d := newTestDaemon()
	_, err := d.Files(context.Background(), FilesParams{})
	require.Error(t, err)
}

func TestGrep_RequiresPattern(t *testing.T) {
	d := newTestDaemon()
	_, err := d.Grep(context.Background(), GrepParams{WorkspaceRoot: t.TempDir()})
	require.Error(t, err)
}

func TestGrep_WarnsOnEscapedAlternation(t *testing.T) {
	d := newTestDaemon()
	root := t.TempDir()
	result, err := d.Grep(context.Background(), GrepParams{WorkspaceRoot: root, Pattern: `foo\|bar`})
	require.NoError(t, err)
	assert.Empty(t, result.Symbols)
	assert.NotEmpty(t, result.Warning)
}

func TestResolveSymbol_RequiresSymbolPath(t *testing.T) {
	d := newTestDaemon()
	_, err := d.ResolveSymbol(context.Background(), ResolveSymbolParams{WorkspaceRoot: t.TempDir()})
	require.Error(t, err)
}

func TestResolveSymbol_NotFoundOnEmptyWorkspace(t *testing.T) {
	d := newTestDaemon()
	root := t.TempDir()
	result, err := d.ResolveSymbol(context.Background(), ResolveSymbolParams{WorkspaceRoot: root, SymbolPath: "Foo.bar"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Error)
}

func TestDiscoverLanguages_FindsGoFiles(t *testing.T) {
	d := newTestDaemon()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi\n"), 0644))

	langs, err := d.discoverLanguages(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, langs)
}

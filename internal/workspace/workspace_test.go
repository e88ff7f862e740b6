package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspmuxd/lspmuxd/internal/serverconfig"
)

func newTestWorkspace(t *testing.T, root string) *Workspace {
	t.Helper()
	cfg := &serverconfig.Config{Servers: map[string]serverconfig.ServerSpec{
		"go": {Name: "gopls", Command: "gopls", Extensions: []string{".go"}},
	}}
	return New(root, "go", cfg, nil)
}

func TestNew_StartsInCreatedState(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	assert.Equal(t, StateCreated, w.State())
	assert.Empty(t, w.InstanceID())
}

func TestIsUnderRoot(t *testing.T) {
	root := t.TempDir()
	w := newTestWorkspace(t, root)

	assert.True(t, w.IsUnderRoot(root+"/pkg/foo.go"))
	assert.True(t, w.IsUnderRoot(root))
	assert.False(t, w.IsUnderRoot("/etc/passwd"))
	assert.False(t, w.IsUnderRoot(root+"/../other/foo.go"))
}

func TestEnsureDocumentOpen_RejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	w := newTestWorkspace(t, root)

	_, err := w.EnsureDocumentOpen(context.Background(), "/etc/passwd")
	require.Error(t, err)
}

func TestWaitForServiceReady_BeforeStart(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	err := w.WaitForServiceReady(context.Background())
	require.Error(t, err)
}

func TestStop_NoopWhenNeverStarted(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, StateCreated, w.State())
}

func TestServerName_FallsBackToLanguageID(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	assert.Equal(t, "go", w.ServerName()) // spec populated only after Start
}

func TestPid_ZeroBeforeStart(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	assert.Equal(t, 0, w.Pid())
}

func TestOpenDocuments_EmptyBeforeStart(t *testing.T) {
	w := newTestWorkspace(t, t.TempDir())
	assert.Empty(t, w.OpenDocuments())
}

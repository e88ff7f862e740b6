// Package edits implements component I from spec.md §4.I: applying a
// WorkspaceEdit to the filesystem. A direct Go port of
// original_source/lspcmd/daemon/handlers/rename.py's
// _apply_workspace_edit / _apply_text_edits.
package edits

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.lsp.dev/uri"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
)

// Apply performs every resource operation and text edit a WorkspaceEdit
// names, in the order spec.md §4.I requires: edit.Changes entries (in
// map order, since the LSP spec itself does not order them), then each
// DocumentChanges entry in list order. It returns workspace-relative
// paths of every file touched.
func Apply(edit lsptypes.WorkspaceEdit, workspaceRoot string) ([]string, error) {
	var touched []string

	for uriStr, textEdits := range edit.Changes {
		path, err := uriToPath(uriStr)
		if err != nil {
			return touched, err
		}
		if err := applyTextEdits(path, textEdits); err != nil {
			return touched, err
		}
		touched = append(touched, relativePath(path, workspaceRoot))
	}

	for _, change := range edit.DocumentChanges {
		switch change.Kind {
		case lsptypes.DocumentChangeKindCreate:
			path, err := uriToPath(change.Create.URI)
			if err != nil {
				return touched, err
			}
			if err := touchFile(path); err != nil {
				return touched, err
			}
			touched = append(touched, relativePath(path, workspaceRoot))

		case lsptypes.DocumentChangeKindRename:
			oldPath, err := uriToPath(change.Rename.OldURI)
			if err != nil {
				return touched, err
			}
			newPath, err := uriToPath(change.Rename.NewURI)
			if err != nil {
				return touched, err
			}
			if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
				return touched, lspmuxerr.NewInvalidInput("creating parent dirs for %s: %v", newPath, err)
			}
			if err := os.Rename(oldPath, newPath); err != nil {
				return touched, lspmuxerr.NewInvalidInput("renaming %s to %s: %v", oldPath, newPath, err)
			}
			touched = append(touched, relativePath(newPath, workspaceRoot))

		case lsptypes.DocumentChangeKindDelete:
			path, err := uriToPath(change.Delete.URI)
			if err != nil {
				return touched, err
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return touched, lspmuxerr.NewInvalidInput("deleting %s: %v", path, err)
			}
			touched = append(touched, relativePath(path, workspaceRoot))

		default: // TextDocumentEdit
			path, err := uriToPath(change.Edit.TextDocument.URI)
			if err != nil {
				return touched, err
			}
			if err := applyTextEdits(path, change.Edit.Edits); err != nil {
				return touched, err
			}
			touched = append(touched, relativePath(path, workspaceRoot))
		}
	}

	return touched, nil
}

func uriToPath(u string) (string, error) {
	p := uri.URI(u).Filename()
	if p == "" {
		return "", lspmuxerr.NewInvalidInput("invalid file URI: %q", u)
	}
	return p, nil
}

func relativePath(path, workspaceRoot string) string {
	rel, err := filepath.Rel(workspaceRoot, path)
	if err != nil {
		return path
	}
	return rel
}

func touchFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return lspmuxerr.NewInvalidInput("creating parent dirs for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return lspmuxerr.NewInvalidInput("creating %s: %v", path, err)
	}
	return f.Close()
}

// applyTextEdits rewrites a single file's contents by applying a set of
// TextEdits in reverse-document order (so earlier edits' offsets are
// never invalidated by later ones applied first), with EOF padding and
// the same newline discipline as the original's _apply_text_edits.
func applyTextEdits(path string, textEdits []lsptypes.TextEdit) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return lspmuxerr.NewInvalidInput("reading %s: %v", path, err)
	}
	original := string(content)

	lines := splitKeepEnds(original)
	if len(lines) > 0 && !strings.HasSuffix(lines[len(lines)-1], "\n") {
		lines[len(lines)-1] += "\n"
	}

	sorted := make([]lsptypes.TextEdit, len(textEdits))
	copy(sorted, textEdits)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Character > b.Character
	})

	for _, edit := range sorted {
		start := edit.Range.Start
		end := edit.Range.End

		if start.Line >= len(lines) {
			for len(lines) <= start.Line {
				lines = append(lines, "")
			}
		}

		if start.Line == end.Line {
			line := ""
			if start.Line < len(lines) {
				line = lines[start.Line]
			}
			startChar := clampIndex(line, start.Character)
			endChar := clampIndex(line, end.Character)
			lines[start.Line] = line[:startChar] + edit.NewText + line[endChar:]
		} else {
			firstLine := ""
			if start.Line < len(lines) {
				firstLine = lines[start.Line][:clampIndex(lines[start.Line], start.Character)]
			}
			lastLine := ""
			if end.Line < len(lines) {
				lastLine = lines[end.Line][clampIndex(lines[end.Line], end.Character):]
			}
			replacement := firstLine + edit.NewText + lastLine
			lines = append(lines[:start.Line], append([]string{replacement}, lines[end.Line+1:]...)...)
		}
	}

	result := strings.Join(lines, "")
	if strings.HasSuffix(result, "\n\n") && !strings.HasSuffix(original, "\n\n") {
		result = result[:len(result)-1]
	}

	if err := os.WriteFile(path, []byte(result), 0644); err != nil {
		return lspmuxerr.NewInvalidInput("writing %s: %v", path, err)
	}
	return nil
}

// clampIndex converts an LSP UTF-16 character offset into a byte index
// into line's UTF-8 bytes for ASCII-range positions (sufficient for this
// daemon's source-code workload); it clamps to line's length so an
// out-of-range offset from a stale edit never panics.
func clampIndex(line string, character int) int {
	if character < 0 {
		return 0
	}
	if character > len(line) {
		return len(line)
	}
	return character
}

// splitKeepEnds splits s into lines, each retaining its trailing "\n"
// (matching Python's str.splitlines(keepends=True)).
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

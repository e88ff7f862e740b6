package daemon

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

// GrepParams is the `grep` method's params, grounded on
// original_source/lspcmd/daemon/handlers/grep.py's handle_grep.
type GrepParams struct {
	WorkspaceRoot   string   `json:"workspaceRoot"`
	Pattern         string   `json:"pattern"`
	Kinds           []string `json:"kinds"`
	CaseSensitive   bool     `json:"caseSensitive"`
	Paths           []string `json:"paths"`
	ExcludePatterns []string `json:"excludePatterns"`
	IncludeDocs     bool     `json:"includeDocs"`
}

// GrepSymbol is one match in a `grep` response.
type GrepSymbol struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
	Container     string `json:"container"`
	Documentation string `json:"documentation,omitempty"`
}

// GrepResult is the `grep` method's result.
type GrepResult struct {
	Symbols []GrepSymbol `json:"symbols"`
	Warning string       `json:"warning,omitempty"`
}

// Grep matches a regex against every collected symbol's name, the way
// grep.py's handle_grep does: compile the pattern once, walk the
// workspace's (or caller-supplied paths') symbols, filter by kind and
// exclude pattern, and flag the common case of an escaped `\|`
// alternation a shell already unescaped for the caller.
func (d *Daemon) Grep(ctx context.Context, params GrepParams) (GrepResult, error) {
	if params.WorkspaceRoot == "" {
		return GrepResult{}, lspmuxerr.NewInvalidInput("workspaceRoot is required")
	}
	if params.Pattern == "" {
		return GrepResult{}, lspmuxerr.NewInvalidInput("pattern is required")
	}

	pattern := params.Pattern
	if !params.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return GrepResult{}, lspmuxerr.NewInvalidInput("invalid regex %q: %v", params.Pattern, err)
	}

	allSymbols, err := d.symbolsForPaths(ctx, params.WorkspaceRoot, params.Paths)
	if err != nil {
		return GrepResult{}, err
	}

	wantKinds := make(map[string]bool, len(params.Kinds))
	for _, k := range params.Kinds {
		wantKinds[k] = true
	}

	var out []GrepSymbol
	for _, s := range allSymbols {
		if !re.MatchString(s.Name) {
			continue
		}
		if len(wantKinds) > 0 && !wantKinds[s.Kind.String()] {
			continue
		}
		if matchesAny(params.ExcludePatterns, s.Path) {
			continue
		}

		gs := GrepSymbol{
			Name:      s.Name,
			Kind:      s.Kind.String(),
			Path:      s.Path,
			Line:      s.Line,
			Column:    s.Column,
			Container: s.Container,
		}
		if params.IncludeDocs {
			gs.Documentation = s.Documentation
		}
		out = append(out, gs)
	}

	result := GrepResult{Symbols: out}
	if len(out) == 0 && strings.Contains(params.Pattern, `\|`) {
		result.Warning = `no matches; note "\|" matches a literal "|" in Go regex, not alternation — use "|" unescaped instead`
	}
	return result, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if matched, _ := doublestar.Match(p, path); matched {
			return true
		}
	}
	return false
}

// symbolsForPaths collects symbols for exactly the given workspace-relative
// paths when paths is non-empty, else the whole workspace.
func (d *Daemon) symbolsForPaths(ctx context.Context, root string, paths []string) ([]symbols.Record, error) {
	if len(paths) == 0 {
		return d.collectAllWorkspaceSymbols(ctx, root)
	}

	var all []symbols.Record
	for _, relPath := range paths {
		absPath := filepath.Join(root, relPath)
		lang, ok := d.cfg.LanguageForPath(relPath)
		if !ok {
			continue
		}
		ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, root, lang)
		if err != nil {
			d.logger.Debug("could not spawn workspace for path", zap.Error(err))
			continue
		}
		recs, err := d.collectFileSymbolsCached(ctx, ws, root, absPath)
		if err != nil {
			continue
		}
		all = append(all, recs...)
	}
	return all, nil
}

package daemon

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

// binaryExtensions flags files whose content is never worth line-counting
// or symbol-collecting, grounded on
// original_source/leta/daemon/handlers/files.py's BINARY_EXTENSIONS
// (that module's own definition was not present in the retrieval pack,
// so this set is a reasonable reconstruction from the same intent: skip
// anything that is not source text).
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".bmp": true, ".webp": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".a": true, ".o": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true, ".flac": true,
	".class": true, ".jar": true, ".pyc": true, ".wasm": true,
}

// FilesParams is the `files` method's params, per spec.md §6.
type FilesParams struct {
	WorkspaceRoot   string   `json:"workspaceRoot"`
	Subpath         string   `json:"subpath"`
	ExcludePatterns []string `json:"excludePatterns"`
	IncludePatterns []string `json:"includePatterns"`
}

// FileInfo describes one file in a `files` response.
type FileInfo struct {
	Path    string         `json:"path"`
	Lines   int            `json:"lines"`
	Bytes   int            `json:"bytes"`
	Symbols map[string]int `json:"symbols"`
}

// FilesTotals summarizes a `files` response.
type FilesTotals struct {
	TotalFiles int `json:"totalFiles"`
	TotalBytes int `json:"totalBytes"`
	TotalLines int `json:"totalLines"`
}

// FilesResult is the `files` method's result.
type FilesResult struct {
	Files  map[string]FileInfo `json:"files"`
	Totals FilesTotals         `json:"totals"`
}

// Files walks workspaceRoot (optionally scoped to subpath), skipping
// spec.md §4.J's excluded directories plus any caller-supplied
// excludePatterns, and reports per-file line/byte counts and a
// per-symbol-kind histogram for every file whose language is known to
// the config collaborator. includePatterns names directory entries that
// should NOT be treated as excluded even though they appear in the
// default excluded-directory set (mirrors files.py's
// `active_excludes = DEFAULT_EXCLUDE_DIRS - include_patterns`).
func (d *Daemon) Files(ctx context.Context, params FilesParams) (FilesResult, error) {
	root := params.WorkspaceRoot
	if root == "" {
		return FilesResult{}, lspmuxerr.NewInvalidInput("workspaceRoot is required")
	}

	scanRoot := root
	if params.Subpath != "" {
		scanRoot = filepath.Join(root, params.Subpath)
	}

	activeExcludes := make(map[string]bool, len(symbols.ExcludedDirs))
	for k, v := range symbols.ExcludedDirs {
		activeExcludes[k] = v
	}
	for _, inc := range params.IncludePatterns {
		delete(activeExcludes, inc)
	}

	result := FilesResult{Files: make(map[string]FileInfo)}

	err := filepath.WalkDir(scanRoot, func(path string, d2 os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d2.IsDir() {
			if path != scanRoot && activeExcludes[d2.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		for _, pat := range params.ExcludePatterns {
			if matched, _ := doublestar.Match(pat, relPath); matched {
				return nil
			}
		}

		info, statErr := d2.Info()
		if statErr != nil {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if binaryExtensions[ext] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			d.logger.Debug("could not read file for files listing", zap.Error(readErr))
			return nil
		}

		lines := bytes.Count(content, []byte("\n"))
		if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
			lines++
		}

		fi := FileInfo{
			Path:    relPath,
			Lines:   lines,
			Bytes:   int(info.Size()),
			Symbols: map[string]int{},
		}

		if lang, ok := d.cfg.LanguageForPath(relPath); ok {
			if recs, err := d.collectFileSymbolsCachedByLang(ctx, root, lang, path); err == nil {
				for _, r := range recs {
					fi.Symbols[r.Kind.String()]++
				}
			}
		}

		result.Files[relPath] = fi
		result.Totals.TotalFiles++
		result.Totals.TotalBytes += fi.Bytes
		result.Totals.TotalLines += fi.Lines
		return nil
	})
	if err != nil {
		return FilesResult{}, err
	}

	return result, nil
}

// collectFileSymbolsCachedByLang is Files' entry point into the shared
// per-file symbol cache: it gets-or-creates the language's workspace and
// defers to collectFileSymbolsCached.
func (d *Daemon) collectFileSymbolsCachedByLang(ctx context.Context, root, lang, absPath string) ([]symbols.Record, error) {
	ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, root, lang)
	if err != nil {
		return nil, err
	}
	return d.collectFileSymbolsCached(ctx, ws, root, absPath)
}

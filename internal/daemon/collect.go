package daemon

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/cache"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
	"github.com/lspmuxd/lspmuxd/internal/workspace"
)

// collectAllWorkspaceSymbols groups a workspace's files by configured
// language, spawns (or reuses) each language's server, and flattens
// every file's documentSymbol response, per spec.md §4.G. A language
// with no configured server, or a per-file collection failure, is
// recovered locally (logged at debug, that file's symbols treated as
// empty) per spec.md §7's propagation policy — one bad file never fails
// the whole collection.
func (d *Daemon) collectAllWorkspaceSymbols(ctx context.Context, root string) ([]symbols.Record, error) {
	files, err := symbols.WalkWorkspaceFiles(root)
	if err != nil {
		return nil, err
	}

	byLang := make(map[string][]string)
	for _, relPath := range files {
		lang, ok := d.cfg.LanguageForPath(relPath)
		if !ok {
			continue
		}
		byLang[lang] = append(byLang[lang], relPath)
	}

	var all []symbols.Record
	for lang, relPaths := range byLang {
		ws, err := d.session.GetOrCreateWorkspaceForLanguage(ctx, root, lang)
		if err != nil {
			d.logger.Debug("could not spawn workspace for language", zap.String("language", lang), zap.Error(err))
			continue
		}
		client := ws.Client()
		if client == nil {
			continue
		}

		for _, relPath := range relPaths {
			absPath := filepath.Join(root, relPath)
			recs, err := d.collectFileSymbolsCached(ctx, ws, root, absPath)
			if err != nil {
				d.logger.Debug("could not collect symbols for file", zap.String("path", absPath), zap.Error(err))
				continue
			}
			all = append(all, recs...)
		}
	}

	return all, nil
}

// collectFileSymbolsCached serves from d.symbolCache when the file's
// (size, mtime) key is unchanged, else opens the file only long enough
// to ask for its symbols (closing it again if this call is the one that
// opened it) and populates the cache.
func (d *Daemon) collectFileSymbolsCached(ctx context.Context, ws *workspace.Workspace, root, absPath string) ([]symbols.Record, error) {
	key, statErr := cache.KeyForFile(absPath)
	if statErr == nil {
		if v, ok := d.symbolCache.Get(key); ok {
			return v.([]symbols.Record), nil
		}
	}

	wasOpen := ws.IsDocumentOpen(absPath)
	doc, err := ws.EnsureDocumentOpen(ctx, absPath)
	if err != nil {
		return nil, err
	}

	recs, err := symbols.CollectForFile(ctx, ws.Client(), absPath, root, doc.URI)
	if !wasOpen {
		_ = ws.CloseDocument(ctx, absPath)
	}
	if err != nil {
		return nil, err
	}

	if statErr == nil {
		d.symbolCache.Put(key, recs, estimateRecordsBytes(recs))
	}

	return recs, nil
}

func estimateRecordsBytes(recs []symbols.Record) int {
	n := 0
	for _, r := range recs {
		n += len(r.Name) + len(r.Path) + len(r.Container) + 32
	}
	return n
}


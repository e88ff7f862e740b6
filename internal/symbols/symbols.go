// Package symbols implements component G from spec.md §4.G: collecting
// a workspace's symbols by asking its language server for
// textDocument/documentSymbol per file, flattening the (possibly
// hierarchical) DocumentSymbol tree into flat records, and normalizing
// names/containers so heterogeneous servers' naming conventions compare
// equal.
package symbols

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lspmuxd/lspmuxd/internal/lsptypes"
	"github.com/lspmuxd/lspmuxd/internal/rpcclient"
)

// ExcludedDirs are directory names never walked while collecting a
// workspace's files, grounded on
// original_source/lspcmd/daemon/handlers/calls.py's workspace-membership
// filter.
var ExcludedDirs = map[string]bool{
	".venv": true, "venv": true, "node_modules": true, "vendor": true,
	".git": true, "__pycache__": true, "target": true, "build": true, "dist": true,
}

// Record is one flattened symbol, carrying both the raw name/container
// the server reported and this file's path relative to the workspace
// root (the unit every downstream matcher — resolver, grep — works
// against).
type Record struct {
	Name           string
	Kind           lsptypes.SymbolKind
	Path           string // workspace-relative
	Line           int    // one-based
	Column         int    // zero-based
	Container      string // raw, as reported or synthesized from nesting
	RangeStartLine int
	RangeEndLine   int
	Documentation  string
}

// CollectForFile requests textDocument/documentSymbol for uriStr and
// flattens the documentSymbol tree (or SymbolInformation[] for hybrid
// servers) into Records with workspace-relative paths. It does not open
// the document; the caller opens it first.
func CollectForFile(ctx context.Context, client *rpcclient.Client, absPath, workspaceRoot, uriStr string) ([]Record, error) {
	var raw []interface{}
	if err := client.SendRequest(ctx, "textDocument/documentSymbol", map[string]interface{}{
		"textDocument": lsptypes.TextDocumentIdentifier{URI: uriStr},
	}, &raw); err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(workspaceRoot, absPath)
	if err != nil {
		relPath = absPath
	}

	return flatten(raw, relPath), nil
}

// flatten handles both possible documentSymbol response shapes: a tree
// of DocumentSymbol (with Children) or a flat SymbolInformation list
// (container taken directly from ContainerName).
func flatten(raw []interface{}, relPath string) []Record {
	var out []Record
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if _, isHierarchical := m["children"]; isHierarchical || hasRangeField(m) {
			out = append(out, flattenDocumentSymbol(m, relPath, "")...)
		} else {
			out = append(out, flattenSymbolInformation(m, relPath))
		}
	}
	return out
}

func hasRangeField(m map[string]interface{}) bool {
	_, ok := m["selectionRange"]
	return ok
}

func flattenDocumentSymbol(m map[string]interface{}, relPath, container string) []Record {
	name, _ := m["name"].(string)
	kind := lsptypes.SymbolKind(toInt(m["kind"]))

	sel, _ := m["selectionRange"].(map[string]interface{})
	rng, _ := m["range"].(map[string]interface{})

	line, col := positionOf(sel)
	startLine, endLine := rangeLines(rng)

	rec := Record{
		Name:           name,
		Kind:           kind,
		Path:           relPath,
		Line:           line + 1, // one-based for Record, zero-based on the wire
		Column:         col,
		Container:      container,
		RangeStartLine: startLine,
		RangeEndLine:   endLine,
	}
	out := []Record{rec}

	childContainer := name
	if container != "" {
		childContainer = container + "." + name
	}

	children, _ := m["children"].([]interface{})
	for _, c := range children {
		cm, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, flattenDocumentSymbol(cm, relPath, childContainer)...)
	}
	return out
}

func flattenSymbolInformation(m map[string]interface{}, relPath string) Record {
	name, _ := m["name"].(string)
	kind := lsptypes.SymbolKind(toInt(m["kind"]))
	container, _ := m["containerName"].(string)

	loc, _ := m["location"].(map[string]interface{})
	rng, _ := loc["range"].(map[string]interface{})
	start, _ := rng["start"].(map[string]interface{})
	line, col := positionOf(start)
	startLine, endLine := rangeLines(rng)

	return Record{
		Name:           name,
		Kind:           kind,
		Path:           relPath,
		Line:           line + 1,
		Column:         col,
		Container:      container,
		RangeStartLine: startLine,
		RangeEndLine:   endLine,
	}
}

func positionOf(m map[string]interface{}) (line, col int) {
	start, _ := m["start"].(map[string]interface{})
	if start == nil {
		start = m
	}
	return toInt(start["line"]), toInt(start["character"])
}

func rangeLines(rng map[string]interface{}) (start, end int) {
	s, _ := rng["start"].(map[string]interface{})
	e, _ := rng["end"].(map[string]interface{})
	return toInt(s["line"]), toInt(e["line"])
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// IsExcluded reports whether relPath has an excluded directory as one of
// its path components.
func IsExcluded(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if ExcludedDirs[part] {
			return true
		}
	}
	return false
}

// WalkWorkspaceFiles returns every non-excluded, non-directory file under
// root, as paths relative to root.
func WalkWorkspaceFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if ExcludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if IsExcluded(rel) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

var (
	callPattern         = regexp.MustCompile(`^(\w+)\([^)]*\)$`)
	receiverMethodRegex = regexp.MustCompile(`^\(\*?\w+\)\.(\w+)$`)
	containerParenRegex = regexp.MustCompile(`^\(\*?(\w+)\)$`)
	implForRegex        = regexp.MustCompile(`^impl\s+\w+(?:<[^>]+>)?\s+for\s+(\w+)`)
	implRegex           = regexp.MustCompile(`^impl\s+(\w+)`)
	receiverPrefixRegex = regexp.MustCompile(`^\(\*?(\w+)\)\.`)
)

// NormalizeSymbolName strips language-specific decoration so the "bare"
// identifier can be compared, per spec.md §4.G: `fn(args)` -> `fn`;
// `(*Recv).Method`/`(Recv).Method` -> `Method`; `Receiver:method` ->
// `method`; `Qualified.name` -> `name`.
func NormalizeSymbolName(name string) string {
	if m := callPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := receiverMethodRegex.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if strings.Contains(name, ":") {
		parts := strings.Split(name, ":")
		return parts[len(parts)-1]
	}
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		return parts[len(parts)-1]
	}
	return name
}

// NormalizeContainer canonicalizes an enclosing-scope string, per
// spec.md §4.G: `(*T)`/`(T)` -> `T`; `impl Trait for T` -> `T`;
// `impl T` -> `T`; otherwise passthrough.
func NormalizeContainer(container string) string {
	if m := containerParenRegex.FindStringSubmatch(container); m != nil {
		return m[1]
	}
	if m := implForRegex.FindStringSubmatch(container); m != nil {
		return m[1]
	}
	if m := implRegex.FindStringSubmatch(container); m != nil {
		return m[1]
	}
	return container
}

// EffectiveContainer returns the normalized container if the symbol
// reports one, else attempts to recover a receiver type from its raw
// name (`(*Recv).Method` -> `Recv`), else "".
func EffectiveContainer(rec Record) string {
	if rec.Container != "" {
		return NormalizeContainer(rec.Container)
	}
	if m := receiverPrefixRegex.FindStringSubmatch(rec.Name); m != nil {
		return m[1]
	}
	return ""
}

// ModuleName returns a path's basename without extension, used as the
// fallback single-segment container (a file acts as its own module).
func ModuleName(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NameMatches reports whether a symbol's raw or normalized name equals
// target.
func NameMatches(rawName, target string) bool {
	return rawName == target || NormalizeSymbolName(rawName) == target
}

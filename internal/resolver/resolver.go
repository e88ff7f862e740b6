// Package resolver implements component H from spec.md §4.H: parsing a
// symbol reference string, filtering the workspace symbol list, matching
// it against the dotted name, and disposing of the result as exact,
// not-found, or ambiguous (with disambiguating refs for each candidate).
// This is a direct Go port of
// original_source/leta/daemon/handlers/resolve_symbol.py.
package resolver

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/symbols"
)

// Ref is a parsed symbol reference: `[pathGlob[:line]:]dotted`.
type Ref struct {
	PathGlob string
	Line     int // 0 means "not specified"
	Dotted   string
}

// ParseRef splits a reference string on its top-level colons (exactly 0,
// 1 or 2 are valid) per spec.md §4.H's grammar.
func ParseRef(ref string) (Ref, error) {
	colonCount := strings.Count(ref, ":")
	switch colonCount {
	case 0:
		return Ref{Dotted: ref}, nil
	case 1:
		parts := strings.SplitN(ref, ":", 2)
		return Ref{PathGlob: parts[0], Dotted: parts[1]}, nil
	case 2:
		parts := strings.SplitN(ref, ":", 3)
		line, err := strconv.Atoi(parts[1])
		if err != nil {
			return Ref{}, lspmuxerr.NewInvalidInput("invalid line number: %q", parts[1])
		}
		return Ref{PathGlob: parts[0], Line: line, Dotted: parts[2]}, nil
	default:
		return Ref{}, lspmuxerr.NewInvalidInput("too many colons in reference %q", ref)
	}
}

// preferredKinds is keyed by kind name (string) rather than by
// lsptypes.SymbolKind: the resolver compares names the way the original
// Python did, and kindName derives each record's name from its numeric
// SymbolKind via lsptypes.SymbolKind.String().
var preferredKinds = map[string]bool{
	"Class": true, "Struct": true, "Interface": true, "Enum": true,
	"Module": true, "Namespace": true, "Package": true,
}

// Disposition is the outcome of Resolve.
type Disposition int

const (
	Exact Disposition = iota
	NotFound
	Ambiguous
)

// Candidate is one ambiguous match, tagged with a ref that resolves
// uniquely back to it.
type Candidate struct {
	Name      string
	Kind      string
	Path      string
	Line      int
	Column    int
	Container string
	Ref       string
}

// Result is Resolve's outcome.
type Result struct {
	Disposition Disposition

	// Exact
	Path           string
	Line           int
	Column         int
	Name           string
	Kind           string
	Container      string
	RangeStartLine int
	RangeEndLine   int

	// NotFound / Ambiguous
	Error       string
	Candidates  []Candidate
	TotalCount  int
}

// kindName renders a symbols.Record's kind the way the original matcher
// compares against (its string name); lsptypes.SymbolKind.String()
// already implements this mapping.
func kindName(rec symbols.Record) string {
	return rec.Kind.String()
}

// Resolve runs the full pipeline: parse, path/line filter, dotted-name
// match, kind-preference tiebreak, disposition.
func Resolve(refStr string, workspaceRoot string, allSymbols []symbols.Record) (Result, error) {
	ref, err := ParseRef(refStr)
	if err != nil {
		return Result{}, err
	}

	candidates := allSymbols

	if ref.PathGlob != "" {
		candidates = filterByPath(candidates, ref.PathGlob)
	}
	if ref.Line != 0 {
		filtered := candidates[:0:0]
		for _, s := range candidates {
			if s.Line == ref.Line {
				filtered = append(filtered, s)
			}
		}
		candidates = filtered
	}

	parts := strings.Split(ref.Dotted, ".")
	target := parts[len(parts)-1]

	var matches []symbols.Record
	if len(parts) == 1 {
		matches = matchSingle(candidates, target)
	} else {
		matches = matchDotted(candidates, parts)
	}

	if len(matches) == 0 {
		return Result{
			Disposition: NotFound,
			Error:       notFoundMessage(ref.Dotted, ref.PathGlob, ref.Line),
		}, nil
	}

	matches = applyKindPreference(matches)

	if len(matches) == 1 {
		m := matches[0]
		return Result{
			Disposition:    Exact,
			Path:           filepath.Join(workspaceRoot, m.Path),
			Line:           m.Line,
			Column:         m.Column,
			Name:           m.Name,
			Kind:           kindName(m),
			Container:      m.Container,
			RangeStartLine: m.RangeStartLine,
			RangeEndLine:   m.RangeEndLine,
		}, nil
	}

	limit := len(matches)
	if limit > 10 {
		limit = 10
	}
	candList := make([]Candidate, 0, limit)
	for _, m := range matches[:limit] {
		candList = append(candList, Candidate{
			Name:      m.Name,
			Kind:      kindName(m),
			Path:      m.Path,
			Line:      m.Line,
			Column:    m.Column,
			Container: m.Container,
			Ref:       generateUnambiguousRef(m, matches, target),
		})
	}

	return Result{
		Disposition: Ambiguous,
		Error:       ambiguousMessage(ref.Dotted, len(matches)),
		Candidates:  candList,
		TotalCount:  len(matches),
	}, nil
}

func notFoundMessage(dotted, pathGlob string, line int) string {
	var parts []string
	if pathGlob != "" {
		parts = append(parts, "in files matching '"+pathGlob+"'")
	}
	if line != 0 {
		parts = append(parts, "on line "+strconv.Itoa(line))
	}
	suffix := ""
	if len(parts) > 0 {
		suffix = " " + strings.Join(parts, " ")
	}
	return "Symbol '" + dotted + "' not found" + suffix
}

func ambiguousMessage(dotted string, count int) string {
	return "Symbol '" + dotted + "' is ambiguous (" + strconv.Itoa(count) + " matches)"
}

func filterByPath(in []symbols.Record, pathGlob string) []symbols.Record {
	out := in[:0:0]
	for _, s := range in {
		if pathMatches(s.Path, pathGlob) {
			out = append(out, s)
		}
	}
	return out
}

// pathMatches mirrors spec.md §4.H step 2's five-way check.
func pathMatches(relPath, pathGlob string) bool {
	relPath = filepath.ToSlash(relPath)
	pathGlob = filepath.ToSlash(pathGlob)

	if ok, _ := doublestar.Match(pathGlob, relPath); ok {
		return true
	}
	if ok, _ := doublestar.Match("**/"+pathGlob, relPath); ok {
		return true
	}
	if ok, _ := doublestar.Match(pathGlob+"/**", relPath); ok {
		return true
	}
	if !strings.Contains(pathGlob, "/") {
		if ok, _ := doublestar.Match(pathGlob, filepath.Base(relPath)); ok {
			return true
		}
		for _, part := range strings.Split(relPath, "/") {
			if part == pathGlob {
				return true
			}
		}
	}
	return false
}

func matchSingle(in []symbols.Record, target string) []symbols.Record {
	var out []symbols.Record
	for _, s := range in {
		if symbols.NameMatches(s.Name, target) || strings.HasSuffix(s.Name, ")."+target) {
			out = append(out, s)
		}
	}
	return out
}

func matchDotted(in []symbols.Record, parts []string) []symbols.Record {
	containerParts := parts[:len(parts)-1]
	target := parts[len(parts)-1]
	containerStr := strings.Join(containerParts, ".")

	var out []symbols.Record
	for _, s := range in {
		goStyle := "(*" + containerStr + ")." + target
		goStyleVal := "(" + containerStr + ")." + target
		if s.Name == goStyle || s.Name == goStyleVal {
			out = append(out, s)
			continue
		}

		if !symbols.NameMatches(s.Name, target) {
			continue
		}

		symContainerNormalized := symbols.NormalizeContainer(s.Container)
		moduleName := symbols.ModuleName(s.Path)
		fullContainer := moduleName
		if symContainerNormalized != "" {
			fullContainer = moduleName + "." + symContainerNormalized
		}

		switch {
		case symContainerNormalized == containerStr:
			out = append(out, s)
		case s.Container == containerStr:
			out = append(out, s)
		case fullContainer == containerStr:
			out = append(out, s)
		case strings.HasSuffix(fullContainer, "."+containerStr):
			out = append(out, s)
		case len(containerParts) == 1 && containerParts[0] == moduleName:
			out = append(out, s)
		}
	}
	return out
}

func applyKindPreference(matches []symbols.Record) []symbols.Record {
	if len(matches) <= 1 {
		return matches
	}
	var typed []symbols.Record
	for _, m := range matches {
		if preferredKinds[kindName(m)] {
			typed = append(typed, m)
		}
	}
	if len(typed) == 1 && len(typed) < len(matches) {
		return typed
	}
	return matches
}

// generateUnambiguousRef produces the shortest of container.name,
// filename:name, filename:container.name, filename:line:name that itself
// resolves uniquely under the same algorithm (spec.md §4.H step 8).
func generateUnambiguousRef(sym symbols.Record, allMatches []symbols.Record, targetName string) string {
	container := symbols.EffectiveContainer(sym)
	filename := filepath.Base(sym.Path)
	normalizedName := symbols.NormalizeSymbolName(targetName)

	if container != "" {
		ref := container + "." + normalizedName
		if refResolvesUniquely(ref, sym, allMatches) {
			return ref
		}
	}

	ref := filename + ":" + normalizedName
	if refResolvesUniquely(ref, sym, allMatches) {
		return ref
	}

	if container != "" {
		ref = filename + ":" + container + "." + normalizedName
		if refResolvesUniquely(ref, sym, allMatches) {
			return ref
		}
	}

	return filename + ":" + strconv.Itoa(sym.Line) + ":" + normalizedName
}

// refResolvesUniquely re-runs the matching rules against allMatches and
// checks that exactly one result comes back and it is targetSym.
func refResolvesUniquely(ref string, targetSym symbols.Record, allMatches []symbols.Record) bool {
	var pathFilter string
	symbolPath := ref

	colonCount := strings.Count(ref, ":")
	if colonCount >= 1 {
		parts := strings.Split(ref, ":")
		switch colonCount {
		case 1:
			pathFilter, symbolPath = parts[0], parts[1]
		case 2:
			pathFilter = parts[0]
			if line, err := strconv.Atoi(parts[1]); err == nil {
				var matching []symbols.Record
				for _, s := range allMatches {
					if filepath.Base(s.Path) == pathFilter && s.Line == line {
						matching = append(matching, s)
					}
				}
				return len(matching) == 1 && sameRecord(matching[0], targetSym)
			}
			if len(parts) > 2 {
				symbolPath = parts[1] + ":" + parts[2]
			} else {
				symbolPath = parts[1]
			}
		}
	}

	var candidates []symbols.Record
	if pathFilter != "" {
		for _, s := range allMatches {
			if filepath.Base(s.Path) == pathFilter {
				candidates = append(candidates, s)
			}
		}
	} else {
		candidates = allMatches
	}

	symParts := strings.Split(symbolPath, ".")
	var matching []symbols.Record
	if len(symParts) == 1 {
		for _, s := range candidates {
			if symbols.NormalizeSymbolName(s.Name) == symParts[0] {
				matching = append(matching, s)
			}
		}
	} else {
		containerStr := strings.Join(symParts[:len(symParts)-1], ".")
		target := symParts[len(symParts)-1]
		for _, s := range candidates {
			if symbols.NormalizeSymbolName(s.Name) != target {
				continue
			}
			sContainerNormalized := symbols.NormalizeContainer(s.Container)
			sModule := symbols.ModuleName(s.Path)
			fullContainer := sModule
			if sContainerNormalized != "" {
				fullContainer = sModule + "." + sContainerNormalized
			}
			sEffectiveContainer := symbols.EffectiveContainer(s)

			switch {
			case sContainerNormalized == containerStr:
				matching = append(matching, s)
			case s.Container == containerStr:
				matching = append(matching, s)
			case sEffectiveContainer == containerStr:
				matching = append(matching, s)
			case fullContainer == containerStr:
				matching = append(matching, s)
			case strings.HasSuffix(fullContainer, "."+containerStr):
				matching = append(matching, s)
			case len(symParts) == 2 && symParts[0] == sModule:
				matching = append(matching, s)
			}
		}
	}

	return len(matching) == 1 && sameRecord(matching[0], targetSym)
}

func sameRecord(a, b symbols.Record) bool {
	return a.Path == b.Path && a.Line == b.Line && a.Column == b.Column && a.Name == b.Name
}

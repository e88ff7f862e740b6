package daemon

import (
	"context"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
	"github.com/lspmuxd/lspmuxd/internal/resolver"
)

// ResolveSymbolParams is the `resolveSymbol` method's params.
type ResolveSymbolParams struct {
	WorkspaceRoot string `json:"workspaceRoot"`
	SymbolPath    string `json:"symbolPath"`
}

// ResolveSymbol collects the workspace's full symbol list and runs it
// through internal/resolver's parse/filter/match/dispose pipeline
// (spec.md §4.H). The exact-match, not-found, and ambiguous shapes are
// all carried in resolver.Result verbatim — the caller distinguishes
// them via Result.Disposition.
func (d *Daemon) ResolveSymbol(ctx context.Context, params ResolveSymbolParams) (resolver.Result, error) {
	if params.WorkspaceRoot == "" {
		return resolver.Result{}, lspmuxerr.NewInvalidInput("workspaceRoot is required")
	}
	if params.SymbolPath == "" {
		return resolver.Result{}, lspmuxerr.NewInvalidInput("symbolPath is required")
	}

	allSymbols, err := d.collectAllWorkspaceSymbols(ctx, params.WorkspaceRoot)
	if err != nil {
		return resolver.Result{}, err
	}

	// NotFound and Ambiguous are reported as a successful result whose
	// Error/Candidates/TotalCount fields are populated, not as an RPC
	// error — resolve_symbol.py returns a ResolveSymbolResult in every
	// disposition rather than raising.
	return resolver.Resolve(params.SymbolPath, params.WorkspaceRoot, allSymbols)
}

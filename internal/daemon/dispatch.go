package daemon

import (
	"context"
	"encoding/json"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
)

// Dispatch decodes rawParams against the method's param type and invokes
// the matching handler, returning a value ready for the transport to
// marshal as the response's `result`. This is the single place spec.md
// §6's method table is wired onto the concrete handler implementations.
func (d *Daemon) Dispatch(ctx context.Context, method string, rawParams json.RawMessage) (interface{}, error) {
	switch method {
	case "files":
		var p FilesParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Files(ctx, p)

	case "grep":
		var p GrepParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Grep(ctx, p)

	case "resolveSymbol":
		var p ResolveSymbolParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.ResolveSymbol(ctx, p)

	case "declaration":
		var p PositionParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Declaration(ctx, p)

	case "references":
		var p PositionParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.References(ctx, p)

	case "supertypes":
		var p PositionParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Supertypes(ctx, p)

	case "subtypes":
		var p PositionParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Subtypes(ctx, p)

	case "calls":
		var p CallsParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Calls(ctx, p)

	case "rename":
		var p RenameParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.Rename(ctx, p)

	case "restartWorkspace":
		var p WorkspaceRootParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.RestartWorkspace(ctx, p)

	case "removeWorkspace":
		var p WorkspaceRootParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.RemoveWorkspace(ctx, p)

	case "describeSession":
		return d.DescribeSession(ctx)

	case "rawLspRequest":
		var p RawLspRequestParams
		if err := decodeParams(rawParams, &p); err != nil {
			return nil, err
		}
		return d.RawLspRequest(ctx, p)

	case "shutdown":
		return d.ShutdownHandler(ctx)

	default:
		return nil, lspmuxerr.NewInvalidInput("unknown method %q", method)
	}
}

func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return lspmuxerr.NewInvalidInput("decoding params: %v", err)
	}
	return nil
}

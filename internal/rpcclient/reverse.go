package rpcclient

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// defaultReverseResults answers the handful of server-to-client requests
// every LSP server may send even when this daemon registers no explicit
// handler for them — a minimally-correct table, exactly the contract
// spec.md's design notes (§9) call out as part of the core.
var defaultReverseResults = map[string]interface{}{
	"window/workDoneProgress/create": nil,
	"client/registerCapability":      nil,
	"client/unregisterCapability":    nil,
}

// buildHandler returns the jsonrpc2.Handler driving this client's Conn: it
// answers known reverse requests, swallows server-initiated notifications
// we don't act on (logging them at debug level), and reports
// method-not-found for anything else, following the teacher's
// server.go::handler() dispatch-by-method-string shape.
func (c *Client) buildHandler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		method := req.Method()
		c.logger.Debug("reverse request", zap.String("method", method))

		if result, ok := defaultReverseResults[method]; ok {
			return reply(ctx, result, nil)
		}
		if method == "workspace/configuration" {
			// One null per requested configuration item, matching
			// spec.md §4.B's "array of nulls" default.
			var params struct {
				Items []interface{} `json:"items"`
			}
			_ = decodeParams(req, &params)
			results := make([]interface{}, len(params.Items))
			return reply(ctx, results, nil)
		}
		if isNotificationMethod(method) {
			// Diagnostics, log messages, progress notifications and the
			// like: nothing in this daemon consumes them, so they're
			// dropped after logging rather than rejected.
			return nil
		}
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}

func isNotificationMethod(method string) bool {
	switch method {
	case "textDocument/publishDiagnostics",
		"window/logMessage",
		"window/showMessage",
		"$/progress",
		"telemetry/event":
		return true
	default:
		return false
	}
}

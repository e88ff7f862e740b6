package rpcclient

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/jsonrpc2"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
)

func TestAsJSONRPC2Error_Direct(t *testing.T) {
	rpcErr := &jsonrpc2.Error{Code: jsonrpc2.MethodNotFound, Message: "nope"}
	var out *jsonrpc2.Error
	ok := asJSONRPC2Error(rpcErr, &out)
	assert.True(t, ok)
	assert.Equal(t, rpcErr, out)
}

func TestAsJSONRPC2Error_Wrapped(t *testing.T) {
	rpcErr := &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "bad"}
	wrapped := fmt.Errorf("calling textDocument/hover: %w", rpcErr)
	var out *jsonrpc2.Error
	ok := asJSONRPC2Error(wrapped, &out)
	assert.True(t, ok)
	assert.Equal(t, jsonrpc2.InvalidParams, out.Code)
}

func TestAsJSONRPC2Error_NotAnRPCError(t *testing.T) {
	var out *jsonrpc2.Error
	ok := asJSONRPC2Error(fmt.Errorf("plain io failure"), &out)
	assert.False(t, ok)
}

func TestIsMethodNotFound(t *testing.T) {
	assert.True(t, lspmuxerr.IsMethodNotFound(-32601))
	assert.False(t, lspmuxerr.IsMethodNotFound(-32602))
}

func TestClient_StartAgainstRealLanguageServer(t *testing.T) {
	t.Skip("requires a real LSP subprocess on the test host; no test in this repository starts one")
}

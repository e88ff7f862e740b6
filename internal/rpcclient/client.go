// Package rpcclient implements the per-child-process JSON-RPC client
// (component B): it spawns an LSP server subprocess, speaks
// Content-Length-framed JSON-RPC 2.0 to it over stdio, and exposes
// sendRequest/sendNotification with deadline-bound cancellation and
// method-not-found mapping. It is built directly on go.lsp.dev/jsonrpc2 —
// the same library the teacher uses for its own LSP *server* in
// internal/lsp/server.go — because jsonrpc2.Conn already guarantees the
// single-writer-per-connection discipline spec.md §4.B and §5 require;
// this client only has to supply the framing (internal/rpcclient/frame)
// and the process lifecycle around it.
package rpcclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
)

// DefaultRequestTimeout is used when no deadline is supplied by the
// caller; spec.md §6.3 lets LSPCMD_REQUEST_TIMEOUT override it.
const DefaultRequestTimeout = 30 * time.Second

// Client is a live JSON-RPC connection to one child LSP server process.
// It owns the subprocess and the jsonrpc2.Conn bound to its stdio, the
// way the teacher's DelveClient owns a `dlv` child and its RPC
// connection — subprocess supervision adapted from that pattern to an
// arbitrary LSP server command rather than a hardcoded `dlv exec`.
type Client struct {
	name    string
	cmd     *exec.Cmd
	conn    jsonrpc2.Conn
	logger  *zap.Logger
	timeout time.Duration

	closedOnce sync.Once
	closed     chan struct{}
	closeErr   atomic.Value // error
}

// Start spawns the server command and returns a Client whose connection
// is live but not yet initialized (the caller drives the initialize
// handshake separately — see internal/workspace).
func Start(ctx context.Context, name, command string, args, env []string, logger *zap.Logger, timeout time.Duration) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	cmd := exec.Command(command, args...)
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdin pipe for %s: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe for %s: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr pipe for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting language server %s (%s): %w", name, command, err)
	}

	c := &Client{
		name:    name,
		cmd:     cmd,
		logger:  logger.With(zap.String("server", name)),
		timeout: timeout,
		closed:  make(chan struct{}),
	}

	go c.drainStderr(stderr)

	stream := newFrameStream(stdout, stdin, stdinCloser{stdin})
	conn := jsonrpc2.NewConn(stream)
	c.conn = conn
	conn.Go(ctx, c.buildHandler())

	go c.awaitExit()

	return c, nil
}

// stdinCloser lets us close only the write side without requiring a full
// io.ReadWriteCloser from exec.Cmd's stdin pipe.
type stdinCloser struct{ io.Closer }

// drainStderr copies the child's stderr to the logger so the pipe never
// backs up and blocks the child (spec.md §4.B: "Stderr is drained to a
// log sink to avoid pipe backpressure").
func (c *Client) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		c.logger.Debug("server stderr", zap.String("line", scanner.Text()))
	}
}

// awaitExit waits for the child process to exit and marks the client
// closed, surfacing ConnectionClosed to anything still waiting on it.
func (c *Client) awaitExit() {
	err := c.cmd.Wait()
	if err != nil {
		c.closeErr.Store(lspmuxerr.NewConnectionClosed("language server %s exited: %v", c.name, err))
	} else {
		c.closeErr.Store(lspmuxerr.NewConnectionClosed("language server %s exited", c.name))
	}
	c.closedOnce.Do(func() { close(c.closed) })
}

// Done reports when the child process has exited or the client has been
// closed; pending requests past this point should fail with
// ConnectionClosed.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// Err returns the reason the client closed, once Done is closed.
func (c *Client) Err() error {
	if v := c.closeErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// SendRequest issues method with params and decodes the result into
// result (which may be nil to discard it). A deadline is applied if the
// caller's context has none.
func (c *Client) SendRequest(ctx context.Context, method string, params, result interface{}) error {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	_, err := c.conn.Call(ctx, method, params, result)
	if err != nil {
		return c.classifyCallError(ctx, method, err)
	}
	return nil
}

// SendNotification issues a fire-and-forget notification.
func (c *Client) SendNotification(ctx context.Context, method string, params interface{}) error {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	if err := c.conn.Notify(ctx, method, params); err != nil {
		return lspmuxerr.Wrap(lspmuxerr.KindProtocolError, err, "notifying %s: %v", method, err)
	}
	return nil
}

func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) classifyCallError(ctx context.Context, method string, err error) error {
	select {
	case <-c.closed:
		return lspmuxerr.NewConnectionClosed("language server %s closed during %s: %v", c.name, method, c.Err())
	default:
	}

	if ctx.Err() == context.DeadlineExceeded {
		return lspmuxerr.NewTimeout(method)
	}

	var rpcErr *jsonrpc2.Error
	if asJSONRPC2Error(err, &rpcErr) {
		code := int(rpcErr.Code)
		if lspmuxerr.IsMethodNotFound(code) {
			return lspmuxerr.NewMethodNotSupported(method, c.name)
		}
		return lspmuxerr.NewLSPResponseError(code, rpcErr.Message, rpcErr.Data)
	}

	return lspmuxerr.Wrap(lspmuxerr.KindProtocolError, err, "calling %s on %s: %v", method, c.name, err)
}

// asJSONRPC2Error unwraps err looking for a *jsonrpc2.Error, the shape a
// server-reported JSON-RPC error arrives as from Conn.Call.
func asJSONRPC2Error(err error, out **jsonrpc2.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if rpcErr, ok := e.(*jsonrpc2.Error); ok {
			*out = rpcErr
			return true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

// Close shuts the connection down; it does not itself send `shutdown`/
// `exit` (that is the Workspace's job per spec.md §4.D's lifecycle) but
// guarantees the subprocess and its pipes are torn down once called.
func (c *Client) Close() error {
	err := c.conn.Close()
	select {
	case <-c.closed:
	case <-time.After(2 * time.Second):
		_ = c.cmd.Process.Kill()
	}
	return err
}

// Pid returns the child process id, used by describeSession.
func (c *Client) Pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Name returns the language-server name this client was started for.
func (c *Client) Name() string { return c.name }

func decodeParams(req jsonrpc2.Request, v interface{}) error {
	return json.Unmarshal(req.Params(), v)
}

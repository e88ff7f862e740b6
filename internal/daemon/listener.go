package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
)

// Request is one inbound newline-delimited JSON message, per spec.md
// §6's "Inbound RPC (boundary, not core)".
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the corresponding reply: exactly one of Result or Error is
// set.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result interface{}     `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody renders an *lspmuxerr.Error (or any other error) as the
// boundary's error shape.
type ErrorBody struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Method  string      `json:"method,omitempty"`
	Server  string      `json:"server,omitempty"`
	Code    int         `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func errorBodyFor(err error) *ErrorBody {
	if e, ok := err.(*lspmuxerr.Error); ok {
		return &ErrorBody{
			Kind:    string(e.Kind),
			Message: e.Error(),
			Method:  e.Method,
			Server:  e.Server,
			Code:    e.Code,
			Data:    e.Data,
		}
	}
	return &ErrorBody{Kind: "internal", Message: err.Error()}
}

// Listener is the thin Unix-domain-socket newline-delimited-JSON
// transport spec.md §6 calls "boundary, not core": it decodes one
// Request per line, dispatches through Daemon.Dispatch, and writes one
// Response per line back, with no protocol logic of its own beyond
// framing and error-shape translation.
type Listener struct {
	sockPath string
	daemon   *Daemon
	logger   *zap.Logger
}

// NewListener builds a Listener bound to sockPath (removed and recreated
// on Serve, since a stale socket file from a prior crash would otherwise
// make net.Listen fail with "address already in use").
func NewListener(sockPath string, d *Daemon, logger *zap.Logger) *Listener {
	return &Listener{sockPath: sockPath, daemon: d, logger: logger}
}

// Serve accepts connections until ctx is done or the listener errors.
func (l *Listener) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.sockPath), 0o755); err != nil {
		return err
	}
	_ = os.Remove(l.sockPath)

	ln, err := net.Listen("unix", l.sockPath)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go l.handleConn(ctx, conn)
	}
}

func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Error: &ErrorBody{Kind: string(lspmuxerr.KindInvalidInput), Message: "malformed request: " + err.Error()}})
			continue
		}

		result, err := l.daemon.Dispatch(ctx, req.Method, req.Params)
		if err != nil {
			l.logger.Debug("handler returned error", zap.String("method", req.Method), zap.Error(err))
			_ = enc.Encode(Response{ID: req.ID, Error: errorBodyFor(err)})
			continue
		}
		_ = enc.Encode(Response{ID: req.ID, Result: result})
	}
}

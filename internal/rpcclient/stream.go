package rpcclient

import (
	"context"
	"io"
	"sync"

	"go.lsp.dev/jsonrpc2"

	"github.com/lspmuxd/lspmuxd/internal/rpcclient/frame"
)

// frameStream adapts our Content-Length frame codec (internal/rpcclient/frame)
// to go.lsp.dev/jsonrpc2's Stream interface, so the correlation layer
// (jsonrpc2.Conn) can sit on top of a codec this daemon owns and tests
// directly, the same way the teacher's stdrwc adapted bare stdio for its
// own LSP server — here generalized to an arbitrary child process's pipes
// instead of a hardcoded os.Stdin/os.Stdout pair.
type frameStream struct {
	reader *frame.Reader
	writer io.Writer
	closer io.Closer

	writeMu sync.Mutex
}

// newFrameStream builds a jsonrpc2.Stream from a child process's stdout
// (read), stdin (write) and the closer its Close calls (Start passes one
// that closes only stdin).
func newFrameStream(stdout io.Reader, stdin io.Writer, closer io.Closer) jsonrpc2.Stream {
	return &frameStream{
		reader: frame.NewReader(stdout),
		writer: stdin,
		closer: closer,
	}
}

func (s *frameStream) Read(ctx context.Context) ([]byte, int64, error) {
	body, err := s.reader.ReadFrame()
	if err != nil {
		return nil, 0, err
	}
	return body, int64(len(body)), nil
}

func (s *frameStream) Write(ctx context.Context, data []byte) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := frame.WriteFrame(s.writer, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *frameStream) Close() error {
	return s.closer.Close()
}

// Package frame implements the Content-Length-framed UTF-8 JSON wire
// format LSP servers speak over stdio: "Content-Length: N\r\n\r\n" followed
// by exactly N bytes of JSON. It is independent of any JSON-RPC
// correlation layer so the framing boundary cases (missing header,
// non-integer length, truncated body, invalid JSON) are directly testable.
package frame

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lspmuxd/lspmuxd/internal/lspmuxerr"
)

const headerContentLength = "Content-Length"

// Reader decodes a sequence of Content-Length-framed messages from an
// underlying byte stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r for frame-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadFrame reads one header block and its body, returning the decoded
// body as raw JSON bytes (not yet unmarshaled into any particular type).
// Additional headers beyond Content-Length are tolerated and ignored.
func (r *Reader) ReadFrame() (json.RawMessage, error) {
	length := -1
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil, io.EOF
			}
			return nil, lspmuxerr.NewProtocolError(err, "reading frame header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, lspmuxerr.NewProtocolError(nil, "malformed header line %q", line)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if strings.EqualFold(name, headerContentLength) {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, lspmuxerr.NewProtocolError(err, "non-integer Content-Length %q", value)
			}
			length = n
		}
	}
	if length < 0 {
		return nil, lspmuxerr.NewProtocolError(nil, "missing Content-Length header")
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, lspmuxerr.NewProtocolError(err, "reading %d byte frame body: %v", length, err)
	}

	if !utf8.Valid(body) {
		return nil, lspmuxerr.NewProtocolError(nil, "frame body is not valid UTF-8")
	}
	var probe json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, lspmuxerr.NewProtocolError(err, "frame body is not valid JSON: %v", err)
	}
	return probe, nil
}

// WriteFrame writes body (which must already be valid JSON) to w with a
// Content-Length header.
func WriteFrame(w io.Writer, body []byte) error {
	header := fmt.Sprintf("%s: %d\r\n\r\n", headerContentLength, len(body))
	buf := bytes.NewBufferString(header)
	buf.Write(body)
	_, err := w.Write(buf.Bytes())
	if err != nil {
		return lspmuxerr.NewProtocolError(err, "writing frame: %v", err)
	}
	return nil
}

// Encode marshals v to JSON and writes it as a frame to w.
func Encode(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return lspmuxerr.NewProtocolError(err, "marshaling frame body: %v", err)
	}
	return WriteFrame(w, body)
}

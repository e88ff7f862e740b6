package frame

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]string{"hello": "world"}))

	r := NewReader(&buf)
	body, err := r.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(body))
}

func TestReadFrame_MultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]int{"n": 1}))
	require.NoError(t, Encode(&buf, map[string]int{"n": 2}))

	r := NewReader(&buf)
	first, err := r.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(first))

	second, err := r.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(second))
}

func TestReadFrame_TolerantOfExtraHeaders(t *testing.T) {
	raw := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: 2\r\n\r\n{}"
	r := NewReader(strings.NewReader(raw))
	body, err := r.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
}

func TestReadFrame_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing content-length", "Content-Type: foo\r\n\r\n{}"},
		{"non-integer length", "Content-Length: abc\r\n\r\n{}"},
		{"eof before n bytes", "Content-Length: 10\r\n\r\n{}"},
		{"invalid json", "Content-Length: 7\r\n\r\nnotjson"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.raw))
			_, err := r.ReadFrame()
			require.Error(t, err)
		})
	}
}

func TestReadFrame_EmptyObjectBody(t *testing.T) {
	r := NewReader(strings.NewReader("Content-Length: 2\r\n\r\n{}"))
	body, err := r.ReadFrame()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
}

func TestReadFrame_EOFAtStreamStart(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

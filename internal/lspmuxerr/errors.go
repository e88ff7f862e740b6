// Package lspmuxerr provides the closed error-kind taxonomy for the LSP
// multiplexing daemon: RPC/process failures rather than source
// diagnostics, so (unlike a compiler error package) there is no source
// context, suggestion or example machinery here — only the kind and data
// a caller needs to react correctly.
package lspmuxerr

import "fmt"

// Kind is the closed set of error categories the daemon surfaces.
type Kind string

const (
	// KindProtocolError marks a framing or JSON parse failure on a child's
	// stdio stream. Fatal for that client instance.
	KindProtocolError Kind = "protocolError"
	// KindConnectionClosed marks a child that exited unexpectedly; pending
	// requests fail with this kind.
	KindConnectionClosed Kind = "connectionClosed"
	// KindTimeout marks a request whose deadline elapsed.
	KindTimeout Kind = "timeout"
	// KindLSPResponseError wraps a JSON-RPC error the server itself
	// reported.
	KindLSPResponseError Kind = "lspResponseError"
	// KindMethodNotSupported marks a -32601 (method not found) surfaced at
	// the layer that cares, so the user sees which method and server.
	KindMethodNotSupported Kind = "methodNotSupported"
	// KindNotFound marks a symbol or resource the user asked about that
	// does not exist.
	KindNotFound Kind = "notFound"
	// KindAmbiguous marks multiple surviving matches for a resolved
	// reference.
	KindAmbiguous Kind = "ambiguous"
	// KindInvalidInput marks a malformed reference string, bad regex, a
	// path outside the workspace, or an invalid line filter.
	KindInvalidInput Kind = "invalidInput"
)

// Error is the single error type every component in this daemon raises;
// Kind selects which fields are meaningful.
type Error struct {
	Kind Kind

	// Message is always present; it is the user-facing description.
	Message string

	// Code and Data are populated for KindLSPResponseError.
	Code int
	Data interface{}

	// Method and Server are populated for KindMethodNotSupported.
	Method string
	Server string

	// Wrapped, if non-nil, is the underlying cause (e.g. a json or io
	// error for KindProtocolError).
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, lspmuxerr.Timeout) against a sentinel built
// with that Kind and no other fields.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// sentinel builds a zero-value marker of a given Kind for errors.Is checks.
func sentinel(k Kind) *Error { return &Error{Kind: k} }

// Sentinels for errors.Is(err, lspmuxerr.Timeout) style checks. They carry
// no message; construct a full *Error with New/Wrap to report one.
var (
	Timeout          = sentinel(KindTimeout)
	ConnectionClosed = sentinel(KindConnectionClosed)
	ProtocolErr      = sentinel(KindProtocolError)
)

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}

// NewProtocolError reports a frame/JSON decode failure on a child stream.
func NewProtocolError(cause error, format string, args ...interface{}) *Error {
	return Wrap(KindProtocolError, cause, format, args...)
}

// NewConnectionClosed reports an unexpected child exit.
func NewConnectionClosed(format string, args ...interface{}) *Error {
	return New(KindConnectionClosed, format, args...)
}

// NewTimeout reports a request deadline expiry.
func NewTimeout(method string) *Error {
	return New(KindTimeout, "request %q timed out", method)
}

// NewLSPResponseError wraps a JSON-RPC error object from the server.
func NewLSPResponseError(code int, message string, data interface{}) *Error {
	return &Error{
		Kind:    KindLSPResponseError,
		Message: message,
		Code:    code,
		Data:    data,
	}
}

// IsMethodNotFound reports whether a JSON-RPC error code is -32601.
func IsMethodNotFound(code int) bool {
	return code == -32601
}

// NewMethodNotSupported reports a capability the server declined.
func NewMethodNotSupported(method, server string) *Error {
	return &Error{
		Kind:    KindMethodNotSupported,
		Message: fmt.Sprintf("method %q is not supported by server %q", method, server),
		Method:  method,
		Server:  server,
	}
}

// NewNotFound reports a symbol/resource lookup miss.
func NewNotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// NewAmbiguous reports multiple surviving matches.
func NewAmbiguous(format string, args ...interface{}) *Error {
	return New(KindAmbiguous, format, args...)
}

// NewInvalidInput reports a malformed request.
func NewInvalidInput(format string, args ...interface{}) *Error {
	return New(KindInvalidInput, format, args...)
}

// IsMethodNotSupportedErr reports whether err is a *Error of
// KindMethodNotSupported, the shape classifyCallError produces when a
// child server responds -32601 to a request this daemon issued.
func IsMethodNotSupportedErr(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindMethodNotSupported
}

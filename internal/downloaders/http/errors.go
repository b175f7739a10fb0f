package stagehttp

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a download failure. A Kind is itself an error so callers
// can test with errors.Is(err, stagehttp.KindProtocol).
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNetwork
	KindProtocol
	KindFormat
	KindSize
	KindFileSystem
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindProtocol:
		return "protocol error"
	case KindFormat:
		return "format error"
	case KindSize:
		return "size error"
	case KindFileSystem:
		return "file system error"
	default:
		return "unknown error"
	}
}

func (k Kind) Error() string { return k.String() }

// Error is the single error type returned by the engine.
type Error struct {
	Kind       Kind
	Op         string
	URL        string
	StatusCode int         // set for KindProtocol
	Header     http.Header // response headers for KindProtocol
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: unexpected status %d %s", msg, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, url string, err error) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

func statusError(op, url string, resp *http.Response) *Error {
	return &Error{
		Kind:       KindProtocol,
		Op:         op,
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}
}

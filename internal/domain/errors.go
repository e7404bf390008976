package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	KindTransport = "transport"
	KindDecode    = "decode"
	KindRender    = "render"
	KindNetwork   = "network"
	KindCanceled  = "canceled"
)

// TransportError reports a pull that completed with a non-200 status.
type TransportError struct {
	StatusCode int
	URL        string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP error status: %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError reports a body or message that is not a JSON array of numbers.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RenderError reports a snapshot entry that cannot be formatted as a number.
type RenderError struct {
	Index int
	Value float64
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render cpu %d: value %v is not a finite number", e.Index+1, e.Value)
}

// Kind maps an error from the update pipeline to a stable label used in
// logs and metric labels.
func Kind(err error) string {
	var (
		transportErr *TransportError
		decodeErr    *DecodeError
		renderErr    *RenderError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &renderErr):
		return KindRender
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindNetwork
	}
}

// ErrStaleUpdate is returned by a sink that refuses an update older than the
// one it already shows. It is not a fault.
var ErrStaleUpdate = errors.New("update is older than the applied one")

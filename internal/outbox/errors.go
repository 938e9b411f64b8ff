package outbox

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFlushInProgress is returned by Flush while another flush is outstanding.
var ErrFlushInProgress = errors.New("flush already in progress")

// Category tells whether resending the same batch can succeed.
type Category int

const (
	Recoverable Category = iota
	Irrecoverable
)

func (c Category) String() string {
	switch c {
	case Recoverable:
		return "recoverable"
	case Irrecoverable:
		return "irrecoverable"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// DeliveryError wraps a failed send. The queue retries both categories; the
// category only drives logging and the status shown to the user.
type DeliveryError struct {
	Category   Category
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver events (%s): %v", e.Category, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type httpStatuser interface {
	HTTPStatus() int
}

func classify(err error) *DeliveryError {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}

	var hs httpStatuser
	if !errors.As(err, &hs) {
		return &DeliveryError{Category: Recoverable, Err: err}
	}

	code := hs.HTTPStatus()
	category := Recoverable
	if code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
		category = Irrecoverable
	}
	return &DeliveryError{Category: category, StatusCode: code, Err: err}
}

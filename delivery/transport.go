package delivery

import (
	"context"
	"errors"
)

// Message is a single outbound email: one recipient, subject and plain-text
// body per call.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport is the adapter interface for outbound mail submission.
// Implementations classify their failures: transient network and server
// errors are returned as-is (retryable), while authentication failures and
// permanent recipient rejections are wrapped with MarkPermanent so the retry
// loop can short-circuit.
type Transport interface {
	// Name identifies the transport in logs and metrics (e.g. "smtp").
	Name() string
	// Send submits the message once. It performs no retries of its own.
	Send(ctx context.Context, msg Message) error
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// MarkPermanent wraps err so IsPermanent reports true for it.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was classified as non-retryable by a
// transport.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

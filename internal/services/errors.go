package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout is matched with errors.Is when the invocation budget ran out
var ErrTimeout = errors.New("invocation timeout exceeded")

// FetchError covers network failures, timeouts and non-2xx responses
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports that the page structure was not recognized at all
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse listing page: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse listing page: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DeliveryError reports that the email provider rejected the message
type DeliveryError struct {
	Code   string
	Reason string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("email delivery failed (%s): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("email delivery failed: %s", e.Reason)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// timeoutOr wraps err with ErrTimeout when ctx's deadline has passed
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

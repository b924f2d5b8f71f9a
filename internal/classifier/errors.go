package classifier

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNoEndpointAvailable is returned when every candidate failed its health probe.
	ErrNoEndpointAvailable = errors.New("no working API endpoint found")

	// ErrRequestTimeout wraps failures caused by a per-call timeout.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrMalformedResponse wraps bodies that do not match the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Body)
}

func wrapTransportError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return fmt.Errorf("execute request: %w", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

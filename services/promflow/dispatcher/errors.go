package dispatcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransportFailure wraps connection, DNS or TLS level failures reported by the HTTP transport
var ErrTransportFailure = errors.New("transport failure")

var errNilObserver = errors.New("nil dispatch observer")
var errNilDispatcher = errors.New("nil dispatcher")

// RemoteCallError is returned when the remote endpoint answered with a status code >= 400
type RemoteCallError struct {
	StatusCode int
	Body       string
}

// Error returns the error string, carrying the raw response body as diagnostic
func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("prometheus call failed with status %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

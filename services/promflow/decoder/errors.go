package decoder

import (
	"errors"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// ErrMalformedResponse signals a body that is not the expected JSON envelope
var ErrMalformedResponse = errors.New("malformed prometheus response")

// ErrUnsupportedResultType signals a result type outside vector, matrix, scalar and string
var ErrUnsupportedResultType = common.ErrUnsupportedResultType

// RemoteQueryError is returned when the envelope reports a status other than "success"
type RemoteQueryError struct {
	ErrorType string
	Message   string
}

// Error returns the server's error message
func (e *RemoteQueryError) Error() string {
	return "prometheus query failed: " + e.Message
}

package common

import (
	"errors"
	"fmt"
	"strings"
)

// ResultType is the result shape declared by a Prometheus query response
type ResultType string

const (
	// ResultVector is an instant vector: at most one sample per series
	ResultVector ResultType = "vector"
	// ResultMatrix is a range matrix: multiple samples per series
	ResultMatrix ResultType = "matrix"
	// ResultScalar is a single [timestamp, value] pair
	ResultScalar ResultType = "scalar"
	// ResultString is a single [timestamp, text] pair
	ResultString ResultType = "string"
)

// ErrUnsupportedResultType signals a result type outside the four known ones
var ErrUnsupportedResultType = errors.New("invalid prometheus result type")

// ParseResultType matches the provided value case-insensitively against the known result types
func ParseResultType(value string) (ResultType, error) {
	switch rt := ResultType(strings.ToLower(value)); rt {
	case ResultVector, ResultMatrix, ResultScalar, ResultString:
		return rt, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedResultType, value)
	}
}

// String returns the canonical lowercase tag
func (rt ResultType) String() string {
	return string(rt)
}

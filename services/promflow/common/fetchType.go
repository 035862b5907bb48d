package common

import (
	"fmt"
	"strings"
)

// FetchType defines how much of a query result set is materialized in the output
type FetchType string

const (
	// FetchAll outputs all the records
	FetchAll FetchType = "FETCH"
	// FetchOne outputs only the first record
	FetchOne FetchType = "FETCH_ONE"
	// FetchStore writes all the records to the result storer and outputs its reference
	FetchStore FetchType = "STORE"
	// FetchNone outputs only the counters
	FetchNone FetchType = "NONE"
)

// ParseFetchType parses the provided string in a case-insensitive manner. An empty string yields FetchNone.
func ParseFetchType(value string) (FetchType, error) {
	switch FetchType(strings.ToUpper(strings.TrimSpace(value))) {
	case "", FetchNone:
		return FetchNone, nil
	case FetchAll:
		return FetchAll, nil
	case FetchOne:
		return FetchOne, nil
	case FetchStore:
		return FetchStore, nil
	default:
		return "", fmt.Errorf("invalid fetch type: %s", value)
	}
}

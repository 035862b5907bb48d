package output

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// ResultStorer persists decoded records, one per line, and returns an opaque reference to the stored data
type ResultStorer interface {
	Store(ctx context.Context, records []common.MetricRecord) (string, error)
	IsInterfaceNil() bool
}

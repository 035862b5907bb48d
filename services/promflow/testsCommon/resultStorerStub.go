package testsCommon

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// ResultStorerStub -
type ResultStorerStub struct {
	StoreHandler func(ctx context.Context, records []common.MetricRecord) (string, error)
}

// Store -
func (stub *ResultStorerStub) Store(ctx context.Context, records []common.MetricRecord) (string, error) {
	if stub.StoreHandler != nil {
		return stub.StoreHandler(ctx, records)
	}

	return "", nil
}

// IsInterfaceNil -
func (stub *ResultStorerStub) IsInterfaceNil() bool {
	return stub == nil
}

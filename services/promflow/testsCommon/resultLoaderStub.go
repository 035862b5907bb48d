package testsCommon

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// ResultLoaderStub -
type ResultLoaderStub struct {
	LoadHandler func(ctx context.Context, reference string) ([]common.MetricRecord, error)
}

// Load -
func (stub *ResultLoaderStub) Load(ctx context.Context, reference string) ([]common.MetricRecord, error) {
	if stub.LoadHandler != nil {
		return stub.LoadHandler(ctx, reference)
	}

	return make([]common.MetricRecord, 0), nil
}

// IsInterfaceNil -
func (stub *ResultLoaderStub) IsInterfaceNil() bool {
	return stub == nil
}

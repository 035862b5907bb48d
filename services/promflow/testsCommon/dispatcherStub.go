package testsCommon

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
)

// DispatcherStub -
type DispatcherStub struct {
	DispatchHandler func(ctx context.Context, request dispatcher.Request) (*dispatcher.Response, error)
}

// Dispatch -
func (stub *DispatcherStub) Dispatch(ctx context.Context, request dispatcher.Request) (*dispatcher.Response, error) {
	if stub.DispatchHandler != nil {
		return stub.DispatchHandler(ctx, request)
	}

	return &dispatcher.Response{StatusCode: 200}, nil
}

// IsInterfaceNil -
func (stub *DispatcherStub) IsInterfaceNil() bool {
	return stub == nil
}

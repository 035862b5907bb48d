package testsCommon

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// TaskRunnerStub -
type TaskRunnerStub struct {
	RunQueryHandler func(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error)
	RunPushHandler  func(ctx context.Context, request common.PushRequest) (*common.PushOutput, error)
}

// RunQuery -
func (stub *TaskRunnerStub) RunQuery(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error) {
	if stub.RunQueryHandler != nil {
		return stub.RunQueryHandler(ctx, request)
	}

	return &common.QueryOutput{}, nil
}

// RunPush -
func (stub *TaskRunnerStub) RunPush(ctx context.Context, request common.PushRequest) (*common.PushOutput, error) {
	if stub.RunPushHandler != nil {
		return stub.RunPushHandler(ctx, request)
	}

	return &common.PushOutput{}, nil
}

// IsInterfaceNil -
func (stub *TaskRunnerStub) IsInterfaceNil() bool {
	return stub == nil
}

package testsCommon

import (
	"context"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// TriggerStub -
type TriggerStub struct {
	IDValue         string
	IntervalValue   time.Duration
	EvaluateHandler func(ctx context.Context, now time.Time) (*common.TriggerEvent, error)
}

// ID -
func (stub *TriggerStub) ID() string {
	return stub.IDValue
}

// Interval -
func (stub *TriggerStub) Interval() time.Duration {
	return stub.IntervalValue
}

// Evaluate -
func (stub *TriggerStub) Evaluate(ctx context.Context, now time.Time) (*common.TriggerEvent, error) {
	if stub.EvaluateHandler != nil {
		return stub.EvaluateHandler(ctx, now)
	}

	return nil, nil
}

// IsInterfaceNil -
func (stub *TriggerStub) IsInterfaceNil() bool {
	return stub == nil
}

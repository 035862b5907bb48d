package api

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// EventStore gives read and delete access to the fired trigger events
type EventStore interface {
	// GetEvents returns the newest events first, optionally filtered by trigger
	GetEvents(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error)

	// GetEvent returns a single event or storage.ErrEventNotFound
	GetEvent(ctx context.Context, id string) (*common.TriggerEvent, error)

	// DeleteEvent removes a single event or returns storage.ErrEventNotFound
	DeleteEvent(ctx context.Context, id string) error

	IsInterfaceNil() bool
}

// TaskRunner executes direct query and push invocations
type TaskRunner interface {
	RunQuery(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error)
	RunPush(ctx context.Context, request common.PushRequest) (*common.PushOutput, error)
	IsInterfaceNil() bool
}

// ResultLoader reads back the records written by a STORE query
type ResultLoader interface {
	Load(ctx context.Context, reference string) ([]common.MetricRecord, error)
	IsInterfaceNil() bool
}

package factory

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start() error
	Address() string
	Close() error
}

// Engine defines the trigger engine operations
type Engine interface {
	StartTriggers(ctx context.Context)
	NumTriggers() int
	IsInterfaceNil() bool
}

// TaskRunner executes direct query and push invocations
type TaskRunner interface {
	RunQuery(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error)
	RunPush(ctx context.Context, request common.PushRequest) (*common.PushOutput, error)
	IsInterfaceNil() bool
}

// EventStore persists and serves the fired trigger events
type EventStore interface {
	Emit(ctx context.Context, event common.TriggerEvent) error
	GetEvents(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error)
	GetEvent(ctx context.Context, id string) (*common.TriggerEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	Close() error
	IsInterfaceNil() bool
}

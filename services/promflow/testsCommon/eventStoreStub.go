package testsCommon

import (
	"context"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// EventStoreStub -
type EventStoreStub struct {
	EmitHandler        func(ctx context.Context, event common.TriggerEvent) error
	GetEventsHandler   func(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error)
	GetEventHandler    func(ctx context.Context, id string) (*common.TriggerEvent, error)
	DeleteEventHandler func(ctx context.Context, id string) error
	CloseHandler       func() error
}

// Emit -
func (stub *EventStoreStub) Emit(ctx context.Context, event common.TriggerEvent) error {
	if stub.EmitHandler != nil {
		return stub.EmitHandler(ctx, event)
	}

	return nil
}

// GetEvents -
func (stub *EventStoreStub) GetEvents(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error) {
	if stub.GetEventsHandler != nil {
		return stub.GetEventsHandler(ctx, triggerID, limit)
	}

	return make([]common.TriggerEvent, 0), nil
}

// GetEvent -
func (stub *EventStoreStub) GetEvent(ctx context.Context, id string) (*common.TriggerEvent, error) {
	if stub.GetEventHandler != nil {
		return stub.GetEventHandler(ctx, id)
	}

	return nil, nil
}

// DeleteEvent -
func (stub *EventStoreStub) DeleteEvent(ctx context.Context, id string) error {
	if stub.DeleteEventHandler != nil {
		return stub.DeleteEventHandler(ctx, id)
	}

	return nil
}

// Close -
func (stub *EventStoreStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *EventStoreStub) IsInterfaceNil() bool {
	return stub == nil
}

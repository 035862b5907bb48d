package engine

import (
	"context"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
)

// Trigger defines a polling trigger evaluated once per tick
type Trigger interface {
	ID() string
	Interval() time.Duration
	// Evaluate runs one independent tick and returns the event to emit, or nil if nothing was found
	Evaluate(ctx context.Context, now time.Time) (*common.TriggerEvent, error)
	IsInterfaceNil() bool
}

// EventEmitter receives the events produced by fired ticks
type EventEmitter interface {
	Emit(ctx context.Context, event common.TriggerEvent) error
	IsInterfaceNil() bool
}

// TickObserver records what happened on each tick
type TickObserver interface {
	ObserveTick(triggerID string, outcome string)
	ObserveEmitted(triggerID string)
	IsInterfaceNil() bool
}

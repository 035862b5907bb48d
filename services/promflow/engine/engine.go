package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iulianpascalau/prom-flow/commonGo"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

// Tick outcomes
const (
	OutcomeEmpty  = "empty"
	OutcomeFired  = "fired"
	OutcomeFailed = "failed"
)

var log = logger.GetOrCreate("engine")

// ArgsTriggerEngine holds the arguments needed to create a new trigger engine
type ArgsTriggerEngine struct {
	Triggers []Trigger
	Emitter  EventEmitter
	Observer TickObserver
}

// triggerEngine owns the poll cadence of every registered trigger
type triggerEngine struct {
	triggers []Trigger
	emitter  EventEmitter
	observer TickObserver
	nowFunc  func() time.Time
}

// NewTriggerEngine creates a new engine instance
func NewTriggerEngine(args ArgsTriggerEngine) (*triggerEngine, error) {
	if check.IfNil(args.Emitter) {
		return nil, errors.New("nil event emitter")
	}
	if check.IfNil(args.Observer) {
		return nil, errors.New("nil tick observer")
	}

	ids := make(map[string]struct{}, len(args.Triggers))
	for idx, trig := range args.Triggers {
		if check.IfNil(trig) {
			return nil, fmt.Errorf("nil trigger at index %d", idx)
		}
		_, exists := ids[trig.ID()]
		if exists {
			return nil, fmt.Errorf("duplicate trigger ID '%s'", trig.ID())
		}
		ids[trig.ID()] = struct{}{}
	}

	return &triggerEngine{
		triggers: args.Triggers,
		emitter:  args.Emitter,
		observer: args.Observer,
		nowFunc:  time.Now,
	}, nil
}

// Process runs a single tick of the provided trigger and emits the event if it fired
func (e *triggerEngine) Process(ctx context.Context, trig Trigger) {
	event, err := trig.Evaluate(ctx, e.nowFunc())
	if err != nil {
		log.Warn("trigger tick failed", "trigger", trig.ID(), "error", err)
		e.observer.ObserveTick(trig.ID(), OutcomeFailed)
		return
	}
	if event == nil {
		e.observer.ObserveTick(trig.ID(), OutcomeEmpty)
		return
	}

	e.observer.ObserveTick(trig.ID(), OutcomeFired)
	err = e.emitter.Emit(ctx, *event)
	if err != nil {
		log.Warn("failed to emit trigger event", "trigger", trig.ID(), "event", event.ID, "error", err)
		return
	}

	e.observer.ObserveEmitted(trig.ID())
	log.Debug("trigger fired", "trigger", trig.ID(), "event", event.ID, "total", event.Output.Total)
}

// StartTriggers schedules every trigger on its own interval until the context is done.
// A trigger never has two ticks in flight, different triggers tick concurrently.
func (e *triggerEngine) StartTriggers(ctx context.Context) {
	for _, trig := range e.triggers {
		current := trig
		log.Debug("starting trigger", "trigger", current.ID(), "interval", current.Interval())

		commonGo.CronJobStarter(ctx, func(ctx context.Context) {
			e.Process(ctx, current)
		}, current.Interval())
	}
}

// NumTriggers returns the number of registered triggers
func (e *triggerEngine) NumTriggers() int {
	return len(e.triggers)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *triggerEngine) IsInterfaceNil() bool {
	return e == nil
}

package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iulianpascalau/prom-flow/services/promflow/api"
	"github.com/iulianpascalau/prom-flow/services/promflow/config"
	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
	"github.com/iulianpascalau/prom-flow/services/promflow/engine"
	"github.com/iulianpascalau/prom-flow/services/promflow/query"
	"github.com/iulianpascalau/prom-flow/services/promflow/storage"
	"github.com/iulianpascalau/prom-flow/services/promflow/trigger"
)

const (
	queryPath = "query"
	pushPath  = "push"
)

type componentsHandler struct {
	runner     TaskRunner
	eventStore EventStore
	engine     Engine
	server     Server
	mutCancel  sync.Mutex
	cancel     func()
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
) (*componentsHandler, error) {
	core, err := createCoreComponents(cfg)
	if err != nil {
		return nil, err
	}

	triggers := make([]engine.Trigger, 0, len(cfg.Triggers))
	for _, triggerCfg := range cfg.Triggers {
		trig, errCreate := createTrigger(triggerCfg, cfg.Prometheus, core.collector, core.decoder, core.selector)
		if errCreate != nil {
			return nil, fmt.Errorf("%w for trigger '%s'", errCreate, triggerCfg.ID)
		}
		triggers = append(triggers, trig)
	}

	eventStore, err := storage.NewSQLiteEventStore(cfg.EventsDatabasePath, cfg.EventsRetentionSeconds)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewTriggerEngine(engine.ArgsTriggerEngine{
		Triggers: triggers,
		Emitter:  eventStore,
		Observer: core.collector,
	})
	if err != nil {
		_ = eventStore.Close()
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Events:         eventStore,
		Runner:         core.runner,
		Results:        core.resultStorer,
		MetricsHandler: core.collector.Handler(),
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		_ = eventStore.Close()
		return nil, err
	}

	return &componentsHandler{
		runner:     core.runner,
		eventStore: eventStore,
		engine:     eng,
		server:     server,
	}, nil
}

func createTrigger(
	triggerCfg config.TriggerConfig,
	defaults config.EndpointConfig,
	observer dispatcher.DispatchObserver,
	queryDecoder query.Decoder,
	selector query.PolicySelector,
) (engine.Trigger, error) {
	endpoint := triggerCfg.Endpoint(defaults)
	triggerDispatcher, err := createDispatcher(queryPath, endpoint, observer)
	if err != nil {
		return nil, err
	}

	return trigger.NewPollingTrigger(trigger.ArgsTrigger{
		ID:       triggerCfg.ID,
		Interval: triggerCfg.Interval(),
		Query: query.ArgsQuery{
			URL:        endpoint.URL,
			Query:      triggerCfg.Query,
			Time:       triggerCfg.Time,
			Dispatcher: triggerDispatcher,
			Decoder:    queryDecoder,
			Selector:   selector,
		},
	})
}

// GetRunner returns the task runner component
func (ch *componentsHandler) GetRunner() TaskRunner {
	return ch.runner
}

// GetEventStore returns the event store component
func (ch *componentsHandler) GetEventStore() EventStore {
	return ch.eventStore
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the web server and then the triggers. The triggers are not started if the server can not listen.
func (ch *componentsHandler) Start() error {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return nil
	}

	err := ch.server.Start()
	if err != nil {
		return fmt.Errorf("failed to start the web server: %w", err)
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())
	ch.engine.StartTriggers(ctx)

	return nil
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}

	_ = ch.server.Close()
	_ = ch.eventStore.Close()
}

package factory

import (
	"net/http"

	"github.com/iulianpascalau/prom-flow/services/promflow/api"
	"github.com/iulianpascalau/prom-flow/services/promflow/config"
	"github.com/iulianpascalau/prom-flow/services/promflow/decoder"
	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
	"github.com/iulianpascalau/prom-flow/services/promflow/metrics"
	"github.com/iulianpascalau/prom-flow/services/promflow/output"
	"github.com/iulianpascalau/prom-flow/services/promflow/query"
	"github.com/iulianpascalau/prom-flow/services/promflow/runner"
	"github.com/iulianpascalau/prom-flow/services/promflow/storage"
)

type metricsCollector interface {
	dispatcher.DispatchObserver
	ObserveTick(triggerID string, outcome string)
	ObserveEmitted(triggerID string)
	Handler() http.Handler
}

type resultStore interface {
	output.ResultStorer
	api.ResultLoader
}

// coreComponents groups what both the service and the one-shot commands need
type coreComponents struct {
	collector    metricsCollector
	resultStorer resultStore
	decoder      query.Decoder
	selector     query.PolicySelector
	runner       TaskRunner
}

func createCoreComponents(cfg config.Config) (*coreComponents, error) {
	collector, err := metrics.NewCollector()
	if err != nil {
		return nil, err
	}

	queryDispatcher, err := createDispatcher(queryPath, cfg.Prometheus, collector)
	if err != nil {
		return nil, err
	}
	pushDispatcher, err := createDispatcher(pushPath, cfg.Pushgateway.Endpoint(), collector)
	if err != nil {
		return nil, err
	}

	resultStorer, err := storage.NewFileResultStorer(cfg.StorageDirectory)
	if err != nil {
		return nil, err
	}

	queryDecoder := decoder.NewQueryResultDecoder()
	selector := output.NewPolicySelector(resultStorer)

	taskRunner, err := runner.NewTaskRunner(runner.ArgsTaskRunner{
		QueryURL:        cfg.Prometheus.URL,
		PushURL:         cfg.Pushgateway.URL,
		QueryDispatcher: queryDispatcher,
		PushDispatcher:  pushDispatcher,
		Decoder:         queryDecoder,
		Selector:        selector,
	})
	if err != nil {
		return nil, err
	}

	return &coreComponents{
		collector:    collector,
		resultStorer: resultStorer,
		decoder:      queryDecoder,
		selector:     selector,
		runner:       taskRunner,
	}, nil
}

// NewTaskRunner creates a standalone task runner for one-shot query and push invocations
func NewTaskRunner(cfg config.Config) (TaskRunner, error) {
	core, err := createCoreComponents(cfg)
	if err != nil {
		return nil, err
	}

	return core.runner, nil
}

func createDispatcher(path string, endpoint config.EndpointConfig, observer dispatcher.DispatchObserver) (dispatcher.Dispatcher, error) {
	return dispatcher.NewHTTPDispatcher(dispatcher.ArgsHTTPDispatcher{
		Path:               path,
		Username:           endpoint.Username,
		Password:           endpoint.Password,
		Headers:            endpoint.Headers,
		Timeout:            endpoint.Timeout(),
		InsecureSkipVerify: endpoint.InsecureSkipVerify,
		Observer:           observer,
	})
}

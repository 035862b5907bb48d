package push

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	// DefaultURL is the Pushgateway used when no URL is configured
	DefaultURL = "http://localhost:9091"

	contentTypeExposition = "text/plain; version=0.0.4"
	statusSuccess         = "success"
)

var (
	log = logger.GetOrCreate("push")

	errEmptyJob        = errors.New("empty job name")
	errNoMetrics       = errors.New("no metrics to push")
	errEmptyMetricName = errors.New("empty metric name")
	errNilDispatcher   = errors.New("nil dispatcher")
)

// ArgsPush holds the arguments needed to create a new push task
type ArgsPush struct {
	URL        string
	Job        string
	Instance   string
	Metrics    []common.PushMetric
	Dispatcher dispatcher.Dispatcher
}

type pushTask struct {
	targetURL  string
	metrics    []common.PushMetric
	dispatcher dispatcher.Dispatcher
}

// NewPush creates a task pushing the provided metrics to a Pushgateway
func NewPush(args ArgsPush) (*pushTask, error) {
	if len(strings.TrimSpace(args.Job)) == 0 {
		return nil, errEmptyJob
	}
	if len(args.Metrics) == 0 {
		return nil, errNoMetrics
	}
	for _, m := range args.Metrics {
		if len(m.Name) == 0 {
			return nil, errEmptyMetricName
		}
	}
	if check.IfNil(args.Dispatcher) {
		return nil, errNilDispatcher
	}

	baseURL := args.URL
	if len(baseURL) == 0 {
		baseURL = DefaultURL
	}

	metrics := make([]common.PushMetric, len(args.Metrics))
	copy(metrics, args.Metrics)

	return &pushTask{
		targetURL:  BuildTargetURL(baseURL, args.Job, args.Instance),
		metrics:    metrics,
		dispatcher: args.Dispatcher,
	}, nil
}

// Run pushes the metrics. Any failure was already raised by the dispatcher, so the output is always a success
func (p *pushTask) Run(ctx context.Context) (*common.PushOutput, error) {
	return dispatcher.Run[*common.PushOutput](ctx, p.dispatcher, p)
}

// BuildRequest creates the POST request carrying the exposition format body
func (p *pushTask) BuildRequest(_ context.Context) (dispatcher.Request, error) {
	return dispatcher.Request{
		Method:      http.MethodPost,
		URL:         p.targetURL,
		ContentType: contentTypeExposition,
		Body:        []byte(FormatMetrics(p.metrics)),
	}, nil
}

// HandleResponse ignores the body and reports the status code
func (p *pushTask) HandleResponse(_ context.Context, response *dispatcher.Response) (*common.PushOutput, error) {
	log.Debug("metrics pushed", "url", p.targetURL, "metrics", len(p.metrics), "code", response.StatusCode)

	return &common.PushOutput{
		Status: statusSuccess,
		Code:   response.StatusCode,
	}, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *pushTask) IsInterfaceNil() bool {
	return p == nil
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/dispatcher"
	"github.com/iulianpascalau/prom-flow/services/promflow/push"
	"github.com/iulianpascalau/prom-flow/services/promflow/query"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

// ErrInvalidRequest signals that the invocation was rejected before anything was dispatched
var ErrInvalidRequest = errors.New("invalid request")

// ArgsTaskRunner holds the arguments needed to create a new task runner
type ArgsTaskRunner struct {
	QueryURL        string
	PushURL         string
	QueryDispatcher dispatcher.Dispatcher
	PushDispatcher  dispatcher.Dispatcher
	Decoder         query.Decoder
	Selector        query.PolicySelector
}

type taskRunner struct {
	queryURL        string
	pushURL         string
	queryDispatcher dispatcher.Dispatcher
	pushDispatcher  dispatcher.Dispatcher
	decoder         query.Decoder
	selector        query.PolicySelector
	nowFunc         func() time.Time
}

// NewTaskRunner creates the component running direct query and push invocations
func NewTaskRunner(args ArgsTaskRunner) (*taskRunner, error) {
	if check.IfNil(args.QueryDispatcher) {
		return nil, errors.New("nil query dispatcher")
	}
	if check.IfNil(args.PushDispatcher) {
		return nil, errors.New("nil push dispatcher")
	}
	if check.IfNil(args.Decoder) {
		return nil, errors.New("nil decoder")
	}
	if check.IfNil(args.Selector) {
		return nil, errors.New("nil policy selector")
	}

	return &taskRunner{
		queryURL:        args.QueryURL,
		pushURL:         args.PushURL,
		queryDispatcher: args.QueryDispatcher,
		pushDispatcher:  args.PushDispatcher,
		decoder:         args.Decoder,
		selector:        args.Selector,
		nowFunc:         time.Now,
	}, nil
}

// RunQuery executes one instant query
func (tr *taskRunner) RunQuery(ctx context.Context, request common.QueryRequest) (*common.QueryOutput, error) {
	fetchType, err := common.ParseFetchType(request.FetchType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	queryTime, err := query.ConvertRelativeTime(request.Time, tr.nowFunc())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	q, err := query.NewQuery(query.ArgsQuery{
		URL:        tr.queryURL,
		Query:      request.Query,
		Time:       queryTime,
		FetchType:  fetchType,
		Dispatcher: tr.queryDispatcher,
		Decoder:    tr.decoder,
		Selector:   tr.selector,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return q.Run(ctx)
}

// RunPush pushes the request metrics to the Pushgateway
func (tr *taskRunner) RunPush(ctx context.Context, request common.PushRequest) (*common.PushOutput, error) {
	p, err := push.NewPush(push.ArgsPush{
		URL:        tr.pushURL,
		Job:        request.Job,
		Instance:   request.Instance,
		Metrics:    request.Metrics,
		Dispatcher: tr.pushDispatcher,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return p.Run(ctx)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (tr *taskRunner) IsInterfaceNil() bool {
	return tr == nil
}

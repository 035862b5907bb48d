package trigger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	"github.com/iulianpascalau/prom-flow/services/promflow/query"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	// DefaultInterval is the poll interval used when none is configured
	DefaultInterval = time.Minute
	// MinimumInterval is the smallest accepted poll interval
	MinimumInterval = time.Second
)

var (
	log = logger.GetOrCreate("trigger")

	errEmptyID          = errors.New("empty trigger ID")
	errIntervalTooSmall = errors.New("trigger interval is below the minimum")
)

// ArgsTrigger holds the arguments needed to create a new polling trigger.
// The fetch type from the query arguments is ignored, a trigger always fetches the whole result.
type ArgsTrigger struct {
	ID       string
	Interval time.Duration
	Query    query.ArgsQuery
}

type pollingTrigger struct {
	id        string
	interval  time.Duration
	queryArgs query.ArgsQuery
}

// NewPollingTrigger creates a trigger that fires whenever its query returns at least one result
func NewPollingTrigger(args ArgsTrigger) (*pollingTrigger, error) {
	if len(strings.TrimSpace(args.ID)) == 0 {
		return nil, errEmptyID
	}

	interval := args.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < MinimumInterval {
		return nil, fmt.Errorf("%w: %v < %v", errIntervalTooSmall, interval, MinimumInterval)
	}

	queryArgs := args.Query
	queryArgs.FetchType = common.FetchAll

	_, err := query.ConvertRelativeTime(queryArgs.Time, time.Now())
	if err != nil {
		return nil, err
	}
	_, err = query.NewQuery(queryArgs)
	if err != nil {
		return nil, err
	}

	return &pollingTrigger{
		id:        args.ID,
		interval:  interval,
		queryArgs: queryArgs,
	}, nil
}

// Evaluate runs one independent tick. It returns a nil event if the query found nothing.
// Errors are not handled here, the caller decides what a failed tick means.
func (pt *pollingTrigger) Evaluate(ctx context.Context, now time.Time) (*common.TriggerEvent, error) {
	queryArgs := pt.queryArgs

	var err error
	queryArgs.Time, err = query.ConvertRelativeTime(queryArgs.Time, now)
	if err != nil {
		return nil, err
	}

	q, err := query.NewQuery(queryArgs)
	if err != nil {
		return nil, err
	}

	output, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug(fmt.Sprintf("Found '%d' results", output.Total), "trigger", pt.id)
	if output.Total == 0 {
		return nil, nil
	}

	return &common.TriggerEvent{
		ID:        uuid.NewString(),
		TriggerID: pt.id,
		FiredAt:   now.Unix(),
		Output:    *output,
	}, nil
}

// ID returns the trigger identifier
func (pt *pollingTrigger) ID() string {
	return pt.id
}

// Interval returns the poll interval
func (pt *pollingTrigger) Interval() time.Duration {
	return pt.interval
}

// IsInterfaceNil returns true if the value under the interface is nil
func (pt *pollingTrigger) IsInterfaceNil() bool {
	return pt == nil
}

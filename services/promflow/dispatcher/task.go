package dispatcher

import (
	"context"

	"github.com/multiversx/mx-chain-core-go/core/check"
)

// Run builds the task's request, dispatches it and hands the classified response back to the task
func Run[T any](ctx context.Context, d Dispatcher, task Task[T]) (T, error) {
	var empty T
	if check.IfNil(d) {
		return empty, errNilDispatcher
	}

	request, err := task.BuildRequest(ctx)
	if err != nil {
		return empty, err
	}

	response, err := d.Dispatch(ctx, request)
	if err != nil {
		return empty, err
	}

	return task.HandleResponse(ctx, response)
}

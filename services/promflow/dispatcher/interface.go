package dispatcher

import (
	"context"
	"time"
)

// Dispatcher sends one request and classifies the answer
type Dispatcher interface {
	Dispatch(ctx context.Context, request Request) (*Response, error)
	IsInterfaceNil() bool
}

// Task couples how a call site builds its request with how it interprets the response
type Task[T any] interface {
	BuildRequest(ctx context.Context) (Request, error)
	HandleResponse(ctx context.Context, response *Response) (T, error)
}

// DispatchObserver is notified about every completed dispatch
type DispatchObserver interface {
	ObserveDispatch(path string, duration time.Duration, err error)
	IsInterfaceNil() bool
}

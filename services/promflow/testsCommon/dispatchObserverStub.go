package testsCommon

import "time"

// DispatchObserverStub -
type DispatchObserverStub struct {
	ObserveDispatchHandler func(path string, duration time.Duration, err error)
}

// ObserveDispatch -
func (stub *DispatchObserverStub) ObserveDispatch(path string, duration time.Duration, err error) {
	if stub.ObserveDispatchHandler != nil {
		stub.ObserveDispatchHandler(path, duration, err)
	}
}

// IsInterfaceNil -
func (stub *DispatchObserverStub) IsInterfaceNil() bool {
	return stub == nil
}

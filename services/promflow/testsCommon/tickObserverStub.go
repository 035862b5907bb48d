package testsCommon

// TickObserverStub -
type TickObserverStub struct {
	ObserveTickHandler    func(triggerID string, outcome string)
	ObserveEmittedHandler func(triggerID string)
}

// ObserveTick -
func (stub *TickObserverStub) ObserveTick(triggerID string, outcome string) {
	if stub.ObserveTickHandler != nil {
		stub.ObserveTickHandler(triggerID, outcome)
	}
}

// ObserveEmitted -
func (stub *TickObserverStub) ObserveEmitted(triggerID string) {
	if stub.ObserveEmittedHandler != nil {
		stub.ObserveEmittedHandler(triggerID)
	}
}

// IsInterfaceNil -
func (stub *TickObserverStub) IsInterfaceNil() bool {
	return stub == nil
}

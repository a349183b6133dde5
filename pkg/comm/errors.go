package comm

// CommunicatorError reports an invalid communicator: an empty id or a nil
// handler registration. Enqueueing never fails (a full queue evicts its
// oldest entry), so no enqueue path returns it and no enqueue is retried.
type CommunicatorError struct {
	Reason string
}

func (e *CommunicatorError) Error() string { return "comm: " + e.Reason }

func newCommunicatorError(reason string) error { return &CommunicatorError{Reason: reason} }

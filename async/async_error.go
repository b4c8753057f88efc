package async

// AsyncError is an async value that will eventually return an error.
// The value is supplied by calling SetValue, after which the AsyncError is
// completed and TryGetValue returns it.
type AsyncError struct {
	errCh     chan error
	val       error
	completed bool
	// Signaled after SetValue, shared by the errors of one Mailbox.
	notify chan struct{}
}

func newAsyncError(notify chan struct{}) *AsyncError {
	return &AsyncError{
		errCh:  make(chan error, 1),
		notify: notify,
	}
}

// SetValue completes the AsyncError. Calling it more than once panics.
func (e *AsyncError) SetValue(err error) {
	e.errCh <- err
	close(e.errCh)
	if e.notify != nil {
		select {
		case e.notify <- struct{}{}:
		default:
		}
	}
}

// TryGetValue returns whether the AsyncError is completed and, if so, its value.
func (e *AsyncError) TryGetValue() (bool, error) {
	if e.completed {
		return true, e.val
	}
	select {
	case err := <-e.errCh:
		e.val = err
		e.completed = true
		return true, err
	default:
		return false, nil
	}
}

package async

// A Mailbox stores AsyncErrors and their callbacks and invokes a callback
// once its AsyncError is completed.
//
// A Mailbox is not a concurrent structure and should only ever be accessed
// from a single goroutine. Callbacks therefore run one at a time, on the
// goroutine that processes the mailbox, and may touch its state without locks.
type Mailbox struct {
	msgs   []message
	notify chan struct{}
}

// The function type of the callback invoked when an AsyncError is completed.
type AsyncErrorResponseHandler func(error)

type message struct {
	Err      *AsyncError
	callback AsyncErrorResponseHandler
}

func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// NewAsyncError returns an AsyncError whose callback is invoked by the first
// ProcessMessages after its SetValue.
func (bx *Mailbox) NewAsyncError(cb AsyncErrorResponseHandler) *AsyncError {
	msg := message{Err: newAsyncError(bx.notify), callback: cb}
	bx.msgs = append(bx.msgs, msg)
	return msg.Err
}

// ProcessMessages invokes the callbacks of all completed AsyncErrors and
// forgets them.
func (bx *Mailbox) ProcessMessages() {
	var pending []message
	for _, msg := range bx.msgs {
		if ok, err := msg.Err.TryGetValue(); ok {
			msg.callback(err)
		} else {
			pending = append(pending, msg)
		}
	}
	bx.msgs = pending
}

// WaitAndProcess blocks until some AsyncError completes, then processes the
// mailbox. It returns immediately if nothing is pending.
func (bx *Mailbox) WaitAndProcess() {
	if len(bx.msgs) == 0 {
		return
	}
	<-bx.notify
	bx.ProcessMessages()
}

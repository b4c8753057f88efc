// Package async runs functions on their own goroutines and hands their results
// back to callbacks that run on the caller's goroutine.
package async

// A Runner spawns goroutines for functions and associates callbacks with them.
//
// Closing every session of an account concurrently while collecting failures:
//
//	runner := async.NewRunner()
//	var failed []string
//	for _, s := range sessions {
//	  s := s
//	  runner.RunAsync(s.Close, func(err error) {
//	    if err != nil {
//	      failed = append(failed, s.ID)
//	    }
//	  })
//	}
//	runner.Drain()
type Runner struct {
	bx *Mailbox
}

func NewRunner() Runner {
	return Runner{bx: NewMailbox()}
}

func (r *Runner) NumRunning() int {
	return r.bx.Count()
}

// RunAsync creates a goroutine to run f. The callback cb is invoked once f
// completed, by ProcessMessages or Drain.
func (r *Runner) RunAsync(f func() error, cb AsyncErrorResponseHandler) {
	asyncErr := r.bx.NewAsyncError(cb)
	go func(rsp *AsyncError) {
		rsp.SetValue(f())
	}(asyncErr)
}

// ProcessMessages invokes the callbacks of completed functions without blocking.
func (r *Runner) ProcessMessages() {
	r.bx.ProcessMessages()
}

// Drain blocks until every function completed and its callback ran.
func (r *Runner) Drain() {
	for r.bx.Count() > 0 {
		r.bx.WaitAndProcess()
	}
}

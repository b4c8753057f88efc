// Package adapter wraps one engine session. It owns the pilot manager and the
// lazily created task manager of a session, keeps a state table per resource
// kind fed by engine notifications, and stages task output into a directory
// derived from the engine session id.
package adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/log/tags"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/orchestrator"
)

// Phases of the task manager.
type phase int

const (
	// No task was submitted yet.
	unbound phase = iota
	// The task manager exists and is bound to the pilots known at first submission.
	bound
	// Tasks were waited on and the task manager was released.
	drained
)

func (p phase) String() string {
	return [...]string{"Unbound", "Bound", "Drained"}[p]
}

type Adapter struct {
	tags.LogTags
	uid         string
	stagingName string
	stagingDir  string
	stat        stats.StatsReceiver
	session     orchestrator.EngineSession
	pmgr        orchestrator.PilotManager

	pilots *statusTable
	tasks  *statusTable

	// Serializes submissions.
	mu sync.Mutex

	// Guards the fields below. Never held across engine calls.
	smu         sync.Mutex
	phase       phase
	tmgr        orchestrator.TaskManager
	tmgrDone    <-chan struct{}
	boundPilots map[string]bool
	failure     error
	closing     bool

	consumers sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New opens an engine session and its pilot manager. Output of tasks is
// staged below workDir, which must be the directory the engine resolves
// client URLs against.
func New(ctx context.Context, engine orchestrator.Engine, workDir string, stat stats.StatsReceiver, lt tags.LogTags) (*Adapter, error) {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	es, err := engine.Open(ctx)
	if err != nil {
		return nil, upstreamError(err, "opening engine session")
	}
	pm, err := es.NewPilotManager()
	if err != nil {
		es.Close()
		return nil, upstreamError(err, "creating pilot manager")
	}

	a := &Adapter{
		LogTags:     lt,
		uid:         es.UID(),
		stagingName: "data." + es.UID(),
		stat:        stat,
		session:     es,
		pmgr:        pm,
		pilots:      newStatusTable(),
		tasks:       newStatusTable(),
	}
	a.stagingDir = filepath.Join(workDir, a.stagingName)
	a.consume("pilots", pm.Subscribe(), a.pilots, a.pilotUpdated, func() bool { return a.isClosing() })
	a.Entry().WithField("engineSession", a.uid).Info("Adapter opened")
	return a, nil
}

// UID is the engine session id.
func (a *Adapter) UID() string {
	return a.uid
}

// StagingDir is where the output of tasks ends up.
func (a *Adapter) StagingDir() string {
	return a.stagingDir
}

// consume applies the notifications of one manager to table until the stream
// ends. A stream ending when expected() is false means the engine went away.
// The returned channel is closed once the stream is fully applied.
func (a *Adapter) consume(kind string, ch <-chan orchestrator.Notification, table *statusTable,
	after func(orchestrator.Notification), expected func() bool) <-chan struct{} {
	done := make(chan struct{})
	a.consumers.Add(1)
	go func() {
		defer a.consumers.Done()
		defer close(done)
		for n := range ch {
			if table.Update(n) {
				a.stat.Counter(stats.AdapterNotificationCounter).Inc(1)
				if after != nil {
					after(n)
				}
			}
		}
		if !expected() {
			a.fail(pkgerrors.Wrapf(orchestrator.ErrConnectionLost, "%s notification stream ended", kind))
		}
	}()
	return done
}

func (a *Adapter) isClosing() bool {
	a.smu.Lock()
	defer a.smu.Unlock()
	return a.closing
}

// check returns the error every operation fails with once the engine was lost.
func (a *Adapter) check() error {
	a.smu.Lock()
	defer a.smu.Unlock()
	return a.failure
}

func (a *Adapter) fail(cause error) {
	err := errors.Upstream(errors.ConnectionLost, cause, "engine session %s", a.uid)
	a.smu.Lock()
	if a.failure == nil {
		a.failure = err
	}
	a.smu.Unlock()
	a.Entry().WithField("engineSession", a.uid).Errorf("Adapter failed: %v", cause)
	a.pilots.Fail(err)
	a.tasks.Fail(err)
}

// upstream classifies an engine error and marks the adapter failed if the
// engine is gone.
func (a *Adapter) upstream(err error, format string, args ...interface{}) error {
	a.stat.Counter(stats.AdapterEngineErrorCounter).Inc(1)
	if isConnectionLost(err) {
		a.fail(err)
		return a.check()
	}
	return upstreamError(err, format, args...)
}

func upstreamError(err error, format string, args ...interface{}) error {
	if isConnectionLost(err) {
		return errors.Upstream(errors.ConnectionLost, err, format, args...)
	}
	return errors.Upstream(errors.EngineFailure, err, format, args...)
}

func isConnectionLost(err error) bool {
	return pkgerrors.Cause(err) == orchestrator.ErrConnectionLost
}

// Close releases the task manager, cancels pilots and closes the engine
// session, then waits for the final notifications. It is idempotent.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.smu.Lock()
		a.closing = true
		tm, ph, failed := a.tmgr, a.phase, a.failure != nil
		a.smu.Unlock()

		var errs []string
		record := func(what string, err error) {
			if err == nil {
				return
			}
			if failed || isConnectionLost(err) {
				log.Debugf("Ignoring error %s of lost engine session %s: %v", what, a.uid, err)
				return
			}
			errs = append(errs, fmt.Sprintf("%s: %v", what, err))
		}
		if tm != nil && ph == bound {
			record("closing task manager", tm.Close())
		}
		record("closing pilot manager", a.pmgr.Close())
		record("closing engine session", a.session.Close())

		a.consumers.Wait()
		a.pilots.Close()
		a.tasks.Close()
		a.stat.Counter(stats.AdapterLivePilotsCounter).Dec(int64(a.pilots.Len()))
		a.stat.Counter(stats.AdapterLiveTasksCounter).Dec(int64(a.tasks.Len()))

		if len(errs) > 0 {
			a.closeErr = errors.Upstream(errors.EngineFailure, nil, "closing adapter %s: %s", a.uid, strings.Join(errs, "; "))
		}
		a.Entry().WithField("engineSession", a.uid).Info("Adapter closed")
	})
	return a.closeErr
}

// toTimeout converts a wait timeout in seconds. nil or negative waits forever.
func toTimeout(seconds *float64) time.Duration {
	if seconds == nil || *seconds < 0 {
		return -1
	}
	return time.Duration(*seconds * float64(time.Second))
}

func (a *Adapter) waitStats() func() {
	l := a.stat.Latency(stats.AdapterWaitLatency_ms).Time()
	return l.Stop
}

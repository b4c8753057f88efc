package adapter

import (
	"context"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/orchestrator"
)

// SubmitTasks submits descs to the task manager, creating and binding it on the
// first submission. Output staging of both streams is added to every description.
func (a *Adapter) SubmitTasks(ctx context.Context, descs []orchestrator.TaskDescription) ([]string, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return []string{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.smu.Lock()
	ph, tm := a.phase, a.tmgr
	a.smu.Unlock()
	switch ph {
	case drained:
		return nil, errors.Validation(errors.WorkManagerDrained, "tasks of session %s were already waited on", a.uid)
	case unbound:
		var err error
		if tm, err = a.bind(); err != nil {
			return nil, err
		}
	}

	prepared := make([]orchestrator.TaskDescription, 0, len(descs))
	for _, d := range descs {
		prepared = append(prepared, a.withOutputStaging(d))
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		a.Entry().Debugf("Submitting tasks:\n%s", spew.Sdump(prepared))
	}
	ids, err := tm.Submit(ctx, prepared)
	if err != nil {
		return nil, a.upstream(err, "submitting %d tasks", len(descs))
	}
	if len(ids) != len(prepared) {
		return nil, errors.Upstream(errors.EngineFailure, nil, "engine returned %d ids for %d tasks", len(ids), len(prepared))
	}

	now := time.Now()
	for i, id := range ids {
		a.tasks.Register(id, orchestrator.NEW, prepared[i], now)
	}
	a.stat.Counter(stats.AdapterTasksSubmittedCounter).Inc(int64(len(ids)))
	a.stat.Counter(stats.AdapterLiveTasksCounter).Inc(int64(len(ids)))
	a.Entry().Infof("Submitted tasks %v", ids)
	return ids, nil
}

// bind creates the task manager, adds every pilot known now and provisions the
// staging directory. Pilots submitted later are not added. Caller holds a.mu.
func (a *Adapter) bind() (orchestrator.TaskManager, error) {
	tm, err := a.session.NewTaskManager()
	if err != nil {
		return nil, a.upstream(err, "creating task manager")
	}
	done := a.consume("tasks", tm.Subscribe(), a.tasks, nil, func() bool {
		a.smu.Lock()
		defer a.smu.Unlock()
		return a.closing || a.phase == drained || a.tmgr != tm
	})

	pids := a.pilots.IDs()
	if len(pids) > 0 {
		if err := tm.AddPilots(pids); err != nil {
			tm.Close()
			return nil, a.upstream(err, "adding pilots %v to task manager", pids)
		}
	}
	if err := os.MkdirAll(a.stagingDir, 0755); err != nil {
		tm.Close()
		return nil, errors.Upstream(errors.EngineFailure, err, "creating staging directory %s", a.stagingDir)
	}

	a.smu.Lock()
	a.tmgr = tm
	a.tmgrDone = done
	a.phase = bound
	a.boundPilots = make(map[string]bool, len(pids))
	for _, id := range pids {
		a.boundPilots[id] = true
	}
	a.smu.Unlock()
	a.Entry().Infof("Task manager bound to pilots %v, staging into %s", pids, a.stagingDir)

	// Pilots that went final while binding missed their removal.
	statuses, _ := a.pilots.Get(pids)
	for _, st := range statuses {
		if st.State.IsFinal() {
			a.pilotUpdated(orchestrator.Notification{ID: st.ID, State: st.State})
		}
	}
	return tm, nil
}

// InspectTasks returns the current snapshots of ids, or of every task in
// submission order if ids is empty.
func (a *Adapter) InspectTasks(ids []string) ([]TaskSnapshot, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	statuses, missing := a.tasks.Get(ids)
	if missing != "" {
		return nil, errors.NotFound(errors.UnknownTask, "unknown task %s", missing)
	}
	snaps := make([]TaskSnapshot, 0, len(statuses))
	for _, st := range statuses {
		desc, _ := st.Desc.(orchestrator.TaskDescription)
		snaps = append(snaps, TaskSnapshot{
			UID:         st.ID,
			State:       st.State,
			Description: desc,
			Pilot:       st.Pilot,
			ExitCode:    st.ExitCode,
			StdoutRef:   a.stagedRef(st, stdoutSuffix),
			StderrRef:   a.stagedRef(st, stderrSuffix),
			States:      st.History,
		})
	}
	return snaps, nil
}

// WaitTasks blocks like WaitPilots, with DONE and FAILED as the default target
// states, then releases the task manager. Waiting is possible once per session.
func (a *Adapter) WaitTasks(ctx context.Context, ids []string, states []orchestrator.State, timeout *float64) ([]orchestrator.State, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	// Holding a.mu lets an in-flight submission finish first.
	a.mu.Lock()
	a.smu.Lock()
	ph, tm, tmDone := a.phase, a.tmgr, a.tmgrDone
	var missing string
	if ph == bound {
		if missing = a.tasks.Missing(ids); missing == "" {
			a.phase = drained
		}
	}
	a.smu.Unlock()
	a.mu.Unlock()
	switch {
	case ph == unbound:
		return nil, errors.Validation(errors.NoTasks, "no tasks were submitted in session %s", a.uid)
	case ph == drained:
		return nil, errors.Validation(errors.WorkManagerDrained, "tasks of session %s were already waited on", a.uid)
	case missing != "":
		return nil, errors.NotFound(errors.UnknownTask, "unknown task %s", missing)
	}

	targets := ids
	if len(targets) == 0 {
		targets = a.tasks.IDs()
	}
	mask := orchestrator.MaskTaskFinal
	if len(states) > 0 {
		mask = orchestrator.MaskForState(states...)
	}
	done := a.waitStats()
	result, err := a.tasks.Wait(ctx, targets, mask, toTimeout(timeout))
	done()

	if cerr := tm.Close(); cerr != nil {
		a.Entry().Warnf("Closing task manager: %v", cerr)
	} else {
		// The final notifications of tasks killed by the close.
		<-tmDone
	}
	a.Entry().Infof("Task manager released after waiting on %d tasks", len(targets))
	return result, err
}

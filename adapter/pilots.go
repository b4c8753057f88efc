package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/orchestrator"
)

// SubmitPilots submits descs as one batch and returns the engine assigned ids.
// An empty batch never reaches the engine.
func (a *Adapter) SubmitPilots(ctx context.Context, descs []orchestrator.PilotDescription) ([]string, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return []string{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if log.IsLevelEnabled(log.DebugLevel) {
		a.Entry().Debugf("Submitting pilots:\n%s", spew.Sdump(descs))
	}
	ids, err := a.pmgr.Submit(ctx, descs)
	if err != nil {
		return nil, a.upstream(err, "submitting %d pilots", len(descs))
	}
	if len(ids) != len(descs) {
		return nil, errors.Upstream(errors.EngineFailure, nil, "engine returned %d ids for %d pilots", len(ids), len(descs))
	}

	now := time.Now()
	for i, id := range ids {
		a.pilots.Register(id, orchestrator.NEW, descs[i], now)
	}
	a.stat.Counter(stats.AdapterPilotsSubmittedCounter).Inc(int64(len(ids)))
	a.stat.Counter(stats.AdapterLivePilotsCounter).Inc(int64(len(ids)))
	a.Entry().Infof("Submitted pilots %v", ids)
	return ids, nil
}

// InspectPilots returns the current snapshots of ids, or of every pilot in
// submission order if ids is empty. It never blocks on state changes.
func (a *Adapter) InspectPilots(ids []string) ([]PilotSnapshot, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	statuses, missing := a.pilots.Get(ids)
	if missing != "" {
		return nil, errors.NotFound(errors.UnknownPilot, "unknown pilot %s", missing)
	}
	snaps := make([]PilotSnapshot, 0, len(statuses))
	for _, st := range statuses {
		snaps = append(snaps, pilotSnapshot(st))
	}
	return snaps, nil
}

// WaitPilots blocks until every targeted pilot is in one of states, or until
// timeout seconds passed. No ids targets every pilot and no states means FINAL.
// The last observed states are returned whether or not the deadline was hit.
func (a *Adapter) WaitPilots(ctx context.Context, ids []string, states []orchestrator.State, timeout *float64) ([]orchestrator.State, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	targets, err := a.pilotTargets(ids)
	if err != nil {
		return nil, err
	}
	mask := orchestrator.MaskFinal
	if len(states) > 0 {
		mask = orchestrator.MaskForState(states...)
	}
	defer a.waitStats()()
	return a.pilots.Wait(ctx, targets, mask, toTimeout(timeout))
}

// CancelPilots cancels the targeted pilots that are not final yet and blocks
// until all targets are final.
func (a *Adapter) CancelPilots(ctx context.Context, ids []string) ([]orchestrator.State, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	targets, err := a.pilotTargets(ids)
	if err != nil {
		return nil, err
	}
	statuses, _ := a.pilots.Get(targets)
	var active []string
	for _, st := range statuses {
		if !st.State.IsFinal() {
			active = append(active, st.ID)
		}
	}
	if len(active) > 0 {
		a.Entry().Infof("Canceling pilots %v", active)
		if err := a.pmgr.Cancel(ctx, active); err != nil {
			return nil, a.upstream(err, "canceling pilots %v", active)
		}
	}
	defer a.waitStats()()
	return a.pilots.Wait(ctx, targets, orchestrator.MaskFinal, -1)
}

func (a *Adapter) pilotTargets(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return a.pilots.IDs(), nil
	}
	if missing := a.pilots.Missing(ids); missing != "" {
		return nil, errors.NotFound(errors.UnknownPilot, "unknown pilot %s", missing)
	}
	return ids, nil
}

// pilotUpdated unbinds final pilots from the task manager.
func (a *Adapter) pilotUpdated(n orchestrator.Notification) {
	if !n.State.IsFinal() {
		return
	}
	a.smu.Lock()
	var tm orchestrator.TaskManager
	if a.phase == bound && a.boundPilots[n.ID] {
		tm = a.tmgr
		delete(a.boundPilots, n.ID)
	}
	a.smu.Unlock()
	if tm == nil {
		return
	}
	if err := tm.RemovePilot(n.ID); err != nil {
		a.Entry().Debugf("Removing pilot %s from task manager: %v", n.ID, err)
		return
	}
	a.Entry().Infof("Pilot %s is %s, removed from task manager", n.ID, n.State)
}

func (s PilotSnapshot) String() string {
	return fmt.Sprintf("%s:%s", s.UID, s.State)
}

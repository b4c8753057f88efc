package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/orchestrator"
)

// Resources this engine can launch pilots on.
const LocalResourcePrefix = "local."

type pilot struct {
	id   string
	desc orchestrator.PilotDescription
	mgr  *pilotManager

	// Guarded by session.mu.
	state orchestrator.State

	// Done once the pilot is final. Tasks running on the pilot are tied to it.
	ctx    context.Context
	cancel context.CancelFunc

	cancelReq  chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

func (p *pilot) requestCancel() {
	p.cancelOnce.Do(func() { close(p.cancelReq) })
}

type pilotManager struct {
	s      *session
	notes  notifier
	pilots []*pilot // guarded by session.mu
	closed bool
}

func (pm *pilotManager) Subscribe() <-chan orchestrator.Notification {
	return pm.notes.subscribe()
}

func (pm *pilotManager) Submit(ctx context.Context, descs []orchestrator.PilotDescription) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := pm.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return nil, err
	}
	if pm.closed {
		return nil, fmt.Errorf("pilot manager of %s is closed", s.uid)
	}

	ids := make([]string, 0, len(descs))
	for _, desc := range descs {
		pctx, cancel := context.WithCancel(s.ctx)
		p := &pilot{
			id:        pilotID(s.pilotSeq),
			desc:      desc,
			mgr:       pm,
			state:     orchestrator.NEW,
			ctx:       pctx,
			cancel:    cancel,
			cancelReq: make(chan struct{}),
			done:      make(chan struct{}),
		}
		s.pilotSeq++
		s.pilots[p.id] = p
		pm.pilots = append(pm.pilots, p)
		ids = append(ids, p.id)
		pm.notes.publish(orchestrator.Notification{ID: p.id, State: orchestrator.NEW, Time: time.Now()})

		s.wg.Add(1)
		go s.runPilot(p)
	}
	return ids, nil
}

func (pm *pilotManager) Cancel(ctx context.Context, ids []string) error {
	s := pm.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	var targets []*pilot
	for _, id := range ids {
		p, ok := s.pilots[id]
		if !ok || p.mgr != pm {
			return fmt.Errorf("unknown pilot %s", id)
		}
		targets = append(targets, p)
	}
	for _, p := range targets {
		p.requestCancel()
	}
	return nil
}

// Close cancels the pilots of this manager and returns once they are final.
func (pm *pilotManager) Close() error {
	s := pm.s
	s.mu.Lock()
	pm.closed = true
	pilots := append([]*pilot(nil), pm.pilots...)
	s.mu.Unlock()

	for _, p := range pilots {
		p.requestCancel()
	}
	for _, p := range pilots {
		<-p.done
	}
	pm.notes.close()
	return nil
}

func (s *session) runPilot(p *pilot) {
	defer s.wg.Done()
	defer close(p.done)
	defer p.cancel()

	logger := log.WithFields(log.Fields{"engineSession": s.uid, "pilotID": p.id})

	if p.desc.Resource != "" && !strings.HasPrefix(p.desc.Resource, LocalResourcePrefix) {
		reason := fmt.Sprintf("resource %q is not available, expected %s*", p.desc.Resource, LocalResourcePrefix)
		logger.Info(reason)
		s.setPilotState(p, orchestrator.FAILED, reason)
		return
	}

	s.setPilotState(p, orchestrator.LAUNCHING, "")
	launch := time.NewTimer(s.engine.cfg.PilotLaunchDelay)
	defer launch.Stop()
	select {
	case <-launch.C:
	case <-p.cancelReq:
		s.setPilotState(p, orchestrator.CANCELED, "")
		return
	case <-s.ctx.Done():
		s.setPilotState(p, orchestrator.CANCELED, "")
		return
	}

	s.setPilotState(p, orchestrator.ACTIVE, "")
	logger.Infof("Pilot active with %d cores, runtime %d", p.desc.Cores, p.desc.Runtime)

	// A pilot without runtime stays active until it is canceled.
	var expired <-chan time.Time
	if p.desc.Runtime > 0 {
		runtime := time.NewTimer(time.Duration(p.desc.Runtime) * s.engine.cfg.RuntimeUnit)
		defer runtime.Stop()
		expired = runtime.C
	}
	select {
	case <-expired:
		s.setPilotState(p, orchestrator.DONE, "")
	case <-p.cancelReq:
		s.setPilotState(p, orchestrator.CANCELED, "")
	case <-s.ctx.Done():
		s.setPilotState(p, orchestrator.CANCELED, "")
	}
}

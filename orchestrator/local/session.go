package local

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/os/temp"
)

type session struct {
	engine  *Engine
	uid     string
	sandbox *temp.TempDir
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	pilots   map[string]*pilot
	pilotSeq int
	// Closed and replaced on every pilot transition or binding change.
	changed chan struct{}
	pmgrs   []*pilotManager
	tmgrs   []*taskManager
	closed  bool
	lost    bool

	wg   sync.WaitGroup
	once sync.Once
}

func newSession(e *Engine, uid string, sandbox *temp.TempDir) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		engine:  e,
		uid:     uid,
		sandbox: sandbox,
		ctx:     ctx,
		cancel:  cancel,
		pilots:  make(map[string]*pilot),
		changed: make(chan struct{}),
	}
}

func (s *session) UID() string {
	return s.uid
}

func (s *session) NewPilotManager() (orchestrator.PilotManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return nil, err
	}
	pm := &pilotManager{s: s}
	s.pmgrs = append(s.pmgrs, pm)
	return pm, nil
}

func (s *session) NewTaskManager() (orchestrator.TaskManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(s.ctx)
	tm := &taskManager{s: s, ctx: ctx, cancel: cancel, pilots: make(map[string]bool)}
	s.tmgrs = append(s.tmgrs, tm)
	return tm, nil
}

// Close cancels pilots and kills tasks, then waits for their final notifications.
func (s *session) Close() error {
	s.shutdown(false)
	s.engine.forget(s.uid)
	return nil
}

func (s *session) shutdown(lost bool) {
	s.mu.Lock()
	if lost {
		s.lost = true
	}
	s.closed = true
	s.mu.Unlock()

	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.mu.Lock()
		pmgrs, tmgrs := s.pmgrs, s.tmgrs
		s.mu.Unlock()
		for _, pm := range pmgrs {
			pm.notes.close()
		}
		for _, tm := range tmgrs {
			tm.notes.close()
		}
		log.WithFields(log.Fields{"engineSession": s.uid, "lost": lost}).Info("Engine session closed")
	})
}

func (s *session) checkLocked() error {
	if s.lost {
		return errors.Wrapf(orchestrator.ErrConnectionLost, "session %s", s.uid)
	}
	if s.closed {
		return fmt.Errorf("session %s is closed", s.uid)
	}
	return nil
}

// Wakes everybody waiting on a pilot transition. Caller holds s.mu.
func (s *session) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *session) setPilotState(p *pilot, state orchestrator.State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.state = state
	s.broadcastLocked()
	p.mgr.notes.publish(orchestrator.Notification{
		ID:    p.id,
		State: state,
		Time:  time.Now(),
		Error: reason,
	})
}

func (s *session) activePilotsLocked(ids map[string]bool) (active []string, pending bool) {
	for id := range ids {
		p, ok := s.pilots[id]
		if !ok {
			continue
		}
		switch {
		case p.state == orchestrator.ACTIVE:
			active = append(active, id)
		case !p.state.IsFinal():
			pending = true
		}
	}
	sort.Strings(active)
	return active, pending
}

func pilotID(seq int) string {
	return fmt.Sprintf("pilot.%04d", seq)
}

func taskID(seq int) string {
	return fmt.Sprintf("task.%06d", seq)
}

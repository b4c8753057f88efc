// Package session binds a caller chosen session id to the adapter that owns
// the engine session behind it.
package session

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/pilotapi/pilotapi/adapter"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/log/tags"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/orchestrator"
)

const MaxIDLength = 128

// AdapterFactory opens the adapter of a new session.
type AdapterFactory func(ctx context.Context, lt tags.LogTags) (*adapter.Adapter, error)

// EngineAdapters returns a factory opening adapters on engine, staging task
// output below workDir.
func EngineAdapters(engine orchestrator.Engine, workDir string, stat stats.StatsReceiver) AdapterFactory {
	return func(ctx context.Context, lt tags.LogTags) (*adapter.Adapter, error) {
		return adapter.New(ctx, engine, workDir, stat, lt)
	}
}

// ValidateID checks that sid can be used as a path element.
func ValidateID(sid string) error {
	switch {
	case sid == "":
		return errors.Validation(errors.BadRequest, "empty session id")
	case sid == "." || sid == "..":
		return errors.Validation(errors.BadRequest, "invalid session id %q", sid)
	case len(sid) > MaxIDLength:
		return errors.Validation(errors.BadRequest, "session id longer than %d characters", MaxIDLength)
	case strings.ContainsAny(sid, `/\`):
		return errors.Validation(errors.BadRequest, "session id %q contains a path separator", sid)
	}
	for _, r := range sid {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return errors.Validation(errors.BadRequest, "session id %q contains whitespace or control characters", sid)
		}
	}
	return nil
}

type Session struct {
	tags.LogTags
	ID string

	adapter *adapter.Adapter

	// Write mutex, serializes submissions.
	wmu sync.Mutex

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// Open validates sid and opens its adapter.
func Open(ctx context.Context, sid string, open AdapterFactory, lt tags.LogTags) (*Session, error) {
	if err := ValidateID(sid); err != nil {
		return nil, err
	}
	lt.SessionID = sid
	a, err := open(ctx, lt)
	if err != nil {
		return nil, err
	}
	s := &Session{LogTags: lt, ID: sid, adapter: a}
	s.Entry().WithField("engineSession", a.UID()).Info("Session opened")
	return s, nil
}

// Adapter returns the adapter of a live session.
func (s *Session) Adapter() (*adapter.Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.NotFound(errors.SessionUnknown, "session %s is closed", s.ID)
	}
	return s.adapter, nil
}

func (s *Session) SubmitPilots(ctx context.Context, descs []orchestrator.PilotDescription) ([]string, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return a.SubmitPilots(ctx, descs)
}

func (s *Session) InspectPilots(ids []string) ([]adapter.PilotSnapshot, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	return a.InspectPilots(ids)
}

func (s *Session) WaitPilots(ctx context.Context, ids []string, states []orchestrator.State, timeout *float64) ([]orchestrator.State, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	return a.WaitPilots(ctx, ids, states, timeout)
}

func (s *Session) CancelPilots(ctx context.Context, ids []string) ([]orchestrator.State, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	return a.CancelPilots(ctx, ids)
}

func (s *Session) SubmitTasks(ctx context.Context, descs []orchestrator.TaskDescription) ([]string, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return a.SubmitTasks(ctx, descs)
}

func (s *Session) InspectTasks(ids []string) ([]adapter.TaskSnapshot, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	return a.InspectTasks(ids)
}

func (s *Session) WaitTasks(ctx context.Context, ids []string, states []orchestrator.State, timeout *float64) ([]orchestrator.State, error) {
	a, err := s.Adapter()
	if err != nil {
		return nil, err
	}
	return a.WaitTasks(ctx, ids, states, timeout)
}

func (s *Session) TaskStdout(tid string) (string, error) {
	a, err := s.Adapter()
	if err != nil {
		return "", err
	}
	return a.TaskStdout(tid)
}

func (s *Session) TaskStderr(tid string) (string, error) {
	a, err := s.Adapter()
	if err != nil {
		return "", err
	}
	return a.TaskStderr(tid)
}

// Close tears down the adapter. Later operations fail with SessionUnknown,
// later calls to Close do nothing.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.closeErr = s.adapter.Close()
		if s.closeErr != nil {
			s.Entry().WithError(s.closeErr).Warn("Session closed with errors")
		} else {
			s.Entry().Info("Session closed")
		}
	})
	return s.closeErr
}

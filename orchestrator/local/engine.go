// Package local is an in-process orchestration engine. Pilots are simulated
// allocations on the local host and tasks are executed as child processes in
// per-task sandbox directories.
package local

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common"
	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/os/temp"
)

const DefaultPilotLaunchDelay = 500 * time.Millisecond

type Config struct {
	// ClientDir resolves "client:///" staging targets. Defaults to the working directory.
	ClientDir string
	// SandboxDir holds one directory per session and task. Defaults to a fresh temp dir.
	SandboxDir string
	// Upper bound of tasks executing at once over all sessions. Defaults to the number of CPUs.
	MaxConcurrentTasks int
	// Time a pilot spends in LAUNCHING.
	PilotLaunchDelay time.Duration
	// Unit of PilotDescription.Runtime. Defaults to a minute.
	RuntimeUnit time.Duration
}

// Engine implements orchestrator.Engine.
type Engine struct {
	cfg   Config
	root  *temp.TempDir
	slots chan struct{}

	mu       sync.Mutex
	taskSeq  int
	sessions map[string]*session
	closed   bool
}

var _ orchestrator.Engine = (*Engine)(nil)

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ClientDir == "" {
		cfg.ClientDir = "."
	}
	clientDir, err := filepath.Abs(cfg.ClientDir)
	if err != nil {
		return nil, err
	}
	cfg.ClientDir = clientDir
	var root *temp.TempDir
	if cfg.SandboxDir == "" {
		root, err = temp.TempDirDefault()
	} else {
		root, err = temp.At(cfg.SandboxDir)
	}
	if err != nil {
		return nil, err
	}
	cfg.SandboxDir = root.Dir
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = runtime.NumCPU()
	}
	if cfg.PilotLaunchDelay < 0 {
		cfg.PilotLaunchDelay = 0
	}
	if cfg.RuntimeUnit <= 0 {
		cfg.RuntimeUnit = time.Minute
	}
	log.Infof("Local engine: sandboxes in %s, staging relative to %s, %d task slots",
		cfg.SandboxDir, cfg.ClientDir, cfg.MaxConcurrentTasks)
	return &Engine{
		cfg:      cfg,
		root:     root,
		slots:    make(chan struct{}, cfg.MaxConcurrentTasks),
		sessions: make(map[string]*session),
	}, nil
}

func (e *Engine) Open(ctx context.Context) (orchestrator.EngineSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.Wrap(orchestrator.ErrConnectionLost, "opening session")
	}
	uid := "session." + common.GenUUID()
	sandbox, err := e.root.FixedDir(uid)
	if err != nil {
		return nil, errors.Wrapf(err, "creating sandbox for %s", uid)
	}
	s := newSession(e, uid, sandbox)
	e.sessions[uid] = s
	log.WithField("engineSession", uid).Info("Opened engine session")
	return s, nil
}

// Close tears down every open session. Sessions opened from this engine
// report orchestrator.ErrConnectionLost afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	sessions := e.sessions
	e.sessions = map[string]*session{}
	e.mu.Unlock()

	for _, s := range sessions {
		s.shutdown(true)
	}
	log.Infof("Local engine closed, %d sessions lost", len(sessions))
	return nil
}

func (e *Engine) forget(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, uid)
}

// Task ids are unique over all sessions of an engine.
func (e *Engine) nextTaskID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := taskID(e.taskSeq)
	e.taskSeq++
	return id
}

func (e *Engine) acquireSlot(ctx context.Context) (release func(), err error) {
	select {
	case e.slots <- struct{}{}:
		return func() { <-e.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

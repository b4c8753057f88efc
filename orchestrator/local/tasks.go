package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/orchestrator"
)

// Environment of every task process.
const (
	TaskIDEnv  = "PILOTAPI_TASK_ID"
	PilotIDEnv = "PILOTAPI_PILOT_ID"
	ThreadsEnv = "OMP_NUM_THREADS"
)

// Time a killed task gets to flush its output pipes.
var killWaitDelay = time.Second

type task struct {
	id   string
	desc orchestrator.TaskDescription
	dir  string
}

type taskManager struct {
	s      *session
	notes  notifier
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Guarded by session.mu.
	pilots    map[string]bool
	hadPilots bool
	next      int
	closed    bool
}

func (tm *taskManager) Subscribe() <-chan orchestrator.Notification {
	return tm.notes.subscribe()
}

func (tm *taskManager) AddPilots(ids []string) error {
	s := tm.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := s.pilots[id]; !ok {
			return fmt.Errorf("unknown pilot %s", id)
		}
	}
	for _, id := range ids {
		tm.pilots[id] = true
		tm.hadPilots = true
	}
	s.broadcastLocked()
	return nil
}

func (tm *taskManager) RemovePilot(id string) error {
	s := tm.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	if !tm.pilots[id] {
		return fmt.Errorf("pilot %s is not bound", id)
	}
	delete(tm.pilots, id)
	s.broadcastLocked()
	return nil
}

func (tm *taskManager) Submit(ctx context.Context, descs []orchestrator.TaskDescription) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := tm.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return nil, err
	}
	if tm.closed {
		return nil, fmt.Errorf("task manager of %s is closed", s.uid)
	}

	ids := make([]string, 0, len(descs))
	for _, desc := range descs {
		t := &task{id: s.engine.nextTaskID(), desc: desc}
		t.dir = filepath.Join(s.sandbox.Dir, t.id)
		ids = append(ids, t.id)
		tm.publish(t, orchestrator.NEW, "", nil, "")

		s.wg.Add(1)
		tm.wg.Add(1)
		go tm.run(t)
	}
	return ids, nil
}

// Close kills the tasks of this manager that are still running and returns
// once their final notifications were published.
func (tm *taskManager) Close() error {
	s := tm.s
	s.mu.Lock()
	tm.closed = true
	s.mu.Unlock()

	tm.cancel()
	tm.wg.Wait()
	tm.notes.close()
	return nil
}

func (tm *taskManager) publish(t *task, state orchestrator.State, pilot string, exitCode *int, reason string) {
	tm.notes.publish(orchestrator.Notification{
		ID:       t.id,
		State:    state,
		Time:     time.Now(),
		Pilot:    pilot,
		ExitCode: exitCode,
		Error:    reason,
	})
}

func (tm *taskManager) run(t *task) {
	defer tm.s.wg.Done()
	defer tm.wg.Done()
	logger := log.WithFields(log.Fields{"engineSession": tm.s.uid, "taskID": t.id})

	tm.publish(t, orchestrator.SCHEDULING, "", nil, "")
	pilotID, hostCtx, err := tm.place()
	if err != nil {
		logger.Infof("Task not scheduled: %v", err)
		tm.publish(t, orchestrator.FAILED, "", nil, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(tm.ctx)
	defer cancel()
	stop := context.AfterFunc(hostCtx, cancel)
	defer stop()

	release, err := tm.s.engine.acquireSlot(ctx)
	if err != nil {
		tm.publish(t, orchestrator.FAILED, pilotID, nil, "canceled before execution")
		return
	}
	defer release()

	tm.publish(t, orchestrator.EXECUTING, pilotID, nil, "")
	exitCode, runErr := tm.execute(ctx, t, pilotID)
	stageErr := stageOutput(t.desc.OutputStaging, t.id, t.dir, tm.s.engine.cfg.ClientDir)

	switch {
	case runErr != nil:
		logger.Infof("Task failed: %v", runErr)
		tm.publish(t, orchestrator.FAILED, pilotID, exitCode, runErr.Error())
	case stageErr != nil:
		logger.Infof("Task output staging failed: %v", stageErr)
		tm.publish(t, orchestrator.FAILED, pilotID, exitCode, "staging: "+stageErr.Error())
	case *exitCode != 0:
		tm.publish(t, orchestrator.FAILED, pilotID, exitCode, fmt.Sprintf("exit code %d", *exitCode))
	default:
		tm.publish(t, orchestrator.DONE, pilotID, exitCode, "")
	}
}

// place picks the pilot a task runs on, waiting until one of the bound pilots
// is active. A manager that never had pilots runs tasks on the local host.
func (tm *taskManager) place() (string, context.Context, error) {
	s := tm.s
	for {
		s.mu.Lock()
		if !tm.hadPilots {
			s.mu.Unlock()
			return "", tm.ctx, nil
		}
		active, pending := s.activePilotsLocked(tm.pilots)
		if len(active) > 0 {
			p := s.pilots[active[tm.next%len(active)]]
			tm.next++
			s.mu.Unlock()
			return p.id, p.ctx, nil
		}
		changed := s.changed
		s.mu.Unlock()

		if !pending {
			return "", nil, errors.New("no active pilot left to run on")
		}
		select {
		case <-changed:
		case <-tm.ctx.Done():
			return "", nil, errors.New("canceled while scheduling")
		}
	}
}

// execute runs the executable in the task sandbox. The returned exit code is
// nil when the process could not be started.
func (tm *taskManager) execute(ctx context.Context, t *task, pilotID string) (*int, error) {
	if t.desc.Executable == "" {
		return nil, errors.New("no executable specified")
	}
	if _, err := tm.s.sandbox.FixedDir(t.id); err != nil {
		return nil, errors.Wrap(err, "creating sandbox")
	}

	cmd := exec.CommandContext(ctx, t.desc.Executable, t.desc.Arguments...)
	cmd.Dir = t.dir

	// Use the parent environment plus whatever additional env vars are provided.
	cmd.Env = os.Environ()
	for k, v := range t.desc.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, TaskIDEnv+"="+t.id, PilotIDEnv+"="+pilotID)
	if t.desc.CPUThreads > 0 {
		cmd.Env = append(cmd.Env, ThreadsEnv+"="+strconv.Itoa(t.desc.CPUThreads))
	}

	// Kill the whole process group on cancellation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killWaitDelay

	stdout := newLazyFile(streamPath(t.dir, t.desc.Stdout, "STDOUT"))
	stderr := newLazyFile(streamPath(t.dir, t.desc.Stderr, "STDERR"))
	defer stdout.Close()
	defer stderr.Close()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if cerr := stdout.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := stderr.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cmd.ProcessState == nil {
		return nil, err
	}
	code := cmd.ProcessState.ExitCode()
	if ctx.Err() != nil {
		return &code, errors.New("killed")
	}
	if _, ok := err.(*exec.ExitError); ok {
		// A non-zero exit is reported through the exit code.
		err = nil
	}
	return &code, err
}

func streamPath(dir, name, dflt string) string {
	if name == "" {
		name = dflt
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

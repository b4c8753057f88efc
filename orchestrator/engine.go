// Package orchestrator defines the contract of the pilot/task orchestration
// engine. The engine is an external collaborator: it accepts pilot and task
// descriptions, schedules work onto resources, stages task output and reports
// every state transition as a Notification.
package orchestrator

//go:generate mockgen -source=engine.go -package=mocks -destination=mocks/engine.go

import (
	"context"
	"errors"
)

// ErrConnectionLost is returned, possibly wrapped, once the engine can no longer
// be reached. A session that saw it will not recover.
var ErrConnectionLost = errors.New("orchestrator: connection to engine lost")

type Engine interface {
	// Open starts a new engine session.
	Open(ctx context.Context) (EngineSession, error)
}

type EngineSession interface {
	// UID is the engine assigned session identifier, unique across sessions.
	UID() string

	NewPilotManager() (PilotManager, error)
	NewTaskManager() (TaskManager, error)

	// Close cancels active pilots, stops running tasks, and returns once their
	// final notifications were delivered. Subscription channels are closed.
	Close() error
}

// PilotManager acquires and releases pilots.
type PilotManager interface {
	// Submit returns one id per description, in order.
	Submit(ctx context.Context, descs []PilotDescription) ([]string, error)
	// Cancel requests cancellation. It does not wait for the pilots to be final.
	Cancel(ctx context.Context, ids []string) error
	// Subscribe returns a channel carrying every later notification of this manager.
	// The channel is closed when the manager is closed.
	Subscribe() <-chan Notification
	Close() error
}

// TaskManager schedules tasks onto the pilots added to it. Without pilots the
// engine decides where tasks run.
type TaskManager interface {
	AddPilots(ids []string) error
	RemovePilot(id string) error
	// Submit returns one id per description, in order.
	Submit(ctx context.Context, descs []TaskDescription) ([]string, error)
	// Subscribe returns a channel carrying every later notification of this manager.
	// The channel is closed when the manager is closed.
	Subscribe() <-chan Notification
	// Close stops tasks that are still running.
	Close() error
}

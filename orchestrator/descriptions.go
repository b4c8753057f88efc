package orchestrator

import (
	"fmt"
	"time"
)

// PilotDescription requests a compute allocation from a resource.
type PilotDescription struct {
	Resource     string `json:"resource"`
	Cores        int    `json:"cores,omitempty"`
	GPUs         int    `json:"gpus,omitempty"`
	Runtime      int    `json:"runtime,omitempty"` // minutes
	Queue        string `json:"queue,omitempty"`
	Project      string `json:"project,omitempty"`
	AccessSchema string `json:"access_schema,omitempty"`
}

type StagingAction string

const (
	Transfer StagingAction = "TRANSFER"
	Copy     StagingAction = "COPY"
	Move     StagingAction = "MOVE"
)

// StagingDirective moves a file out of a task sandbox once the task ends.
// Source and Target are URLs: "task:///" is relative to the sandbox and
// "client:///" to the client's working directory. ${TASK_ID} is expanded
// to the engine assigned task id.
type StagingDirective struct {
	Source string        `json:"source"`
	Target string        `json:"target"`
	Action StagingAction `json:"action,omitempty"`
}

const TaskIDVar = "${TASK_ID}"

// TaskDescription describes one unit of work.
type TaskDescription struct {
	Name          string             `json:"name,omitempty"`
	Executable    string             `json:"executable"`
	Arguments     []string           `json:"arguments,omitempty"`
	Environment   map[string]string  `json:"environment,omitempty"`
	CPUProcesses  int                `json:"cpu_processes,omitempty"`
	CPUThreads    int                `json:"cpu_threads,omitempty"`
	GPUProcesses  int                `json:"gpu_processes,omitempty"`
	Stdout        string             `json:"stdout,omitempty"`
	Stderr        string             `json:"stderr,omitempty"`
	OutputStaging []StagingDirective `json:"output_staging,omitempty"`
}

func (d TaskDescription) String() string {
	return fmt.Sprintf("TaskDescription{Name: %q, Executable: %q, Arguments: %q}", d.Name, d.Executable, d.Arguments)
}

// Notification reports one state transition of a pilot or a task.
type Notification struct {
	ID    string
	State State
	Time  time.Time

	// Set for tasks that were scheduled on a pilot.
	Pilot string
	// Set for tasks once they are final and the executable ran.
	ExitCode *int
	// Why a pilot or a task failed.
	Error string
}

func (n Notification) String() string {
	s := fmt.Sprintf("%s -> %s", n.ID, n.State)
	if n.Pilot != "" {
		s += " on " + n.Pilot
	}
	if n.ExitCode != nil {
		s += fmt.Sprintf(" exit=%d", *n.ExitCode)
	}
	if n.Error != "" {
		s += " error=" + n.Error
	}
	return s
}

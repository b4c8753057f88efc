package adapter

import (
	"github.com/pilotapi/pilotapi/orchestrator"
)

// PilotSnapshot is a point in time view of a pilot.
type PilotSnapshot struct {
	UID         string                        `json:"uid"`
	State       orchestrator.State            `json:"state"`
	Description orchestrator.PilotDescription `json:"description"`
	States      []StateChange                 `json:"states"`
	Error       string                        `json:"error"`
}

// TaskSnapshot is a point in time view of a task. The output references are
// only set once the task is final and its output was staged.
type TaskSnapshot struct {
	UID         string                       `json:"uid"`
	State       orchestrator.State           `json:"state"`
	Description orchestrator.TaskDescription `json:"description"`
	Pilot       string                       `json:"pilot"`
	ExitCode    *int                         `json:"exit_code"`
	StdoutRef   string                       `json:"stdout_ref,omitempty"`
	StderrRef   string                       `json:"stderr_ref,omitempty"`
	States      []StateChange                `json:"states"`
}

func pilotSnapshot(st Status) PilotSnapshot {
	desc, _ := st.Desc.(orchestrator.PilotDescription)
	return PilotSnapshot{
		UID:         st.ID,
		State:       st.State,
		Description: desc,
		States:      st.History,
		Error:       st.Error,
	}
}

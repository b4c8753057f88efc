package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the lifecycle state of a pilot or a task.
//
// Pilots move NEW -> LAUNCHING -> ACTIVE -> {DONE, FAILED, CANCELED}.
// Tasks move NEW -> SCHEDULING -> EXECUTING -> {DONE, FAILED}.
type State int

const (
	UNKNOWN State = iota
	NEW
	LAUNCHING
	ACTIVE
	SCHEDULING
	EXECUTING
	DONE
	FAILED
	CANCELED
)

var stateNames = []string{
	UNKNOWN:    "UNKNOWN",
	NEW:        "NEW",
	LAUNCHING:  "LAUNCHING",
	ACTIVE:     "ACTIVE",
	SCHEDULING: "SCHEDULING",
	EXECUTING:  "EXECUTING",
	DONE:       "DONE",
	FAILED:     "FAILED",
	CANCELED:   "CANCELED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState accepts the upper-case name of a state, case insensitively.
func ParseState(name string) (State, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range stateNames {
		if i != int(UNKNOWN) && n == upper {
			return State(i), nil
		}
	}
	return UNKNOWN, fmt.Errorf("unknown state %q", name)
}

// IsFinal reports whether no further transitions can happen.
func (s State) IsFinal() bool {
	return MaskFinal.Matches(s)
}

// Rank is the position of s in its progression. Both pilots and tasks have
// four stages: NEW, in transit, running, final.
func (s State) Rank() int {
	switch s {
	case NEW:
		return 0
	case LAUNCHING, SCHEDULING:
		return 1
	case ACTIVE, EXECUTING:
		return 2
	case DONE, FAILED, CANCELED:
		return 3
	}
	return -1
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// StateMask describes a set of States as a bitmask.
type StateMask uint64

const (
	MaskFinal     StateMask = 1<<uint(DONE) | 1<<uint(FAILED) | 1<<uint(CANCELED)
	MaskTaskFinal StateMask = 1<<uint(DONE) | 1<<uint(FAILED)
)

// MaskForState creates a StateMask that matches exactly the given states.
func MaskForState(states ...State) StateMask {
	var mask StateMask
	for _, s := range states {
		mask = mask | (1 << uint(s))
	}
	return mask
}

func (m StateMask) Matches(state State) bool {
	return MaskForState(state)&m != 0
}

func (m StateMask) String() string {
	var names []string
	for i := range stateNames {
		if m.Matches(State(i)) {
			names = append(names, stateNames[i])
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

package adapter

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/orchestrator"
)

// Status is the latest known state of a pilot or a task plus its history.
type Status struct {
	ID       string
	State    orchestrator.State
	History  []StateChange
	Desc     interface{}
	Pilot    string
	ExitCode *int
	Error    string
}

type StateChange struct {
	State orchestrator.State `json:"state"`
	// Seconds since the epoch.
	Time float64 `json:"time"`
}

func stateChange(s orchestrator.State, t time.Time) StateChange {
	return StateChange{State: s, Time: float64(t.UnixNano()) / float64(time.Second)}
}

type entry struct {
	Status
	// Notifications may arrive before the submitter registers the id.
	// Unregistered entries are invisible to readers.
	registered bool
}

// statusTable is a database of Statuses fed by engine notifications.
// Waiters register one-shot listeners that are closed on every change.
type statusTable struct {
	mu        sync.Mutex
	order     []string
	entries   map[string]*entry
	listeners []chan struct{}
	closed    bool
	err       error
}

func newStatusTable() *statusTable {
	return &statusTable{entries: make(map[string]*entry)}
}

// Register makes id visible with the given initial state, unless a
// notification already moved it further.
func (t *statusTable) Register(id string, initial orchestrator.State, desc interface{}, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		e = &entry{Status: Status{ID: id, State: initial, History: []StateChange{stateChange(initial, at)}}}
		t.entries[id] = e
	}
	if e.registered {
		return
	}
	e.registered = true
	e.Desc = desc
	t.order = append(t.order, id)
	t.wakeLocked()
}

// Update applies a notification. Updates of final entries and updates that
// would move an entry backwards are dropped. Returns whether it was applied.
func (t *statusTable) Update(n orchestrator.Notification) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[n.ID]
	if !ok {
		e = &entry{Status: Status{ID: n.ID, State: orchestrator.UNKNOWN}}
		t.entries[n.ID] = e
	}
	if e.State.IsFinal() || n.State.Rank() < e.State.Rank() || (n.State == e.State && len(e.History) > 0) {
		log.Debugf("Dropping notification %s, %s is %s", n, n.ID, e.State)
		return false
	}

	e.State = n.State
	at := n.Time
	if at.IsZero() {
		at = time.Now()
	}
	e.History = append(e.History, stateChange(n.State, at))
	if n.Pilot != "" {
		e.Pilot = n.Pilot
	}
	if n.ExitCode != nil {
		code := *n.ExitCode
		e.ExitCode = &code
	}
	if n.Error != "" {
		e.Error = n.Error
	}
	t.wakeLocked()
	return true
}

// Fail makes every current and future Wait return err.
func (t *statusTable) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
	t.wakeLocked()
}

// Close makes every current and future Wait return the current states.
func (t *statusTable) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.wakeLocked()
}

func (t *statusTable) wakeLocked() {
	for _, l := range t.listeners {
		close(l)
	}
	t.listeners = nil
}

// IDs returns the registered ids in registration order.
func (t *statusTable) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

func (t *statusTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

func (t *statusTable) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return ok && e.registered
}

// Get returns copies of the statuses of ids, or of all entries if ids is empty.
// If an id is unknown it is returned as missing.
func (t *statusTable) Get(ids []string) (statuses []Status, missing string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(ids) == 0 {
		ids = t.order
	}
	statuses = make([]Status, 0, len(ids))
	for _, id := range ids {
		e, ok := t.entries[id]
		if !ok || !e.registered {
			return nil, id
		}
		st := e.Status
		st.History = append([]StateChange(nil), e.History...)
		statuses = append(statuses, st)
	}
	return statuses, ""
}

// Missing returns the first id that is not registered.
func (t *statusTable) Missing(ids []string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if e, ok := t.entries[id]; !ok || !e.registered {
			return id
		}
	}
	return ""
}

// Wait blocks until the state of every id matches mask. A negative timeout
// waits forever and a zero timeout returns immediately. The deadline is not an
// error: the last observed states are returned either way.
func (t *statusTable) Wait(ctx context.Context, ids []string, mask orchestrator.StateMask, timeout time.Duration) ([]orchestrator.State, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		states, listener, err := t.queryAndListen(ids, mask, timeout != 0)
		if err != nil || listener == nil {
			return states, err
		}
		select {
		case <-listener:
		case <-deadline:
			states, _, err := t.queryAndListen(ids, mask, false)
			return states, err
		case <-ctx.Done():
			return states, ctx.Err()
		}
	}
}

// queryAndListen returns the current states of ids and, if they don't all
// match and listen is set, a channel closed on the next change.
func (t *statusTable) queryAndListen(ids []string, mask orchestrator.StateMask, listen bool) (
	states []orchestrator.State, listener chan struct{}, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, nil, t.err
	}

	states = make([]orchestrator.State, 0, len(ids))
	matched := true
	for _, id := range ids {
		st := orchestrator.UNKNOWN
		if e, ok := t.entries[id]; ok {
			st = e.State
		}
		states = append(states, st)
		if !mask.Matches(st) {
			matched = false
		}
	}
	if matched || !listen || t.closed {
		return states, nil, nil
	}
	listener = make(chan struct{})
	t.listeners = append(t.listeners, listener)
	return states, listener, nil
}

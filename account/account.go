// Package account holds the provisioned identities, their login secrets and
// the sessions each of them owns.
package account

import (
	"crypto/subtle"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pilotapi/pilotapi/async"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/log/tags"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/session"
)

type Account struct {
	tags.LogTags
	Identity string
	password string
	stat     stats.StatsReceiver
	// Called with the change in the number of sessions.
	onSessions func(delta int)

	smu    sync.Mutex
	secret string

	// Serializes changes of the session map. Sessions being opened are
	// reserved in pending and generation counts the bulk closes.
	mu         sync.Mutex
	sessions   map[string]*session.Session
	pending    map[string]bool
	generation int
}

func newAccount(identity, password string, stat stats.StatsReceiver, onSessions func(int)) *Account {
	return &Account{
		LogTags:    tags.LogTags{Account: identity},
		Identity:   identity,
		password:   password,
		stat:       stat,
		onSessions: onSessions,
		sessions:   map[string]*session.Session{},
		pending:    map[string]bool{},
	}
}

func (a *Account) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) == 1
}

// EnsureSecret returns the secret of the account, generating it with gen on
// first use. The secret never changes afterwards.
func (a *Account) EnsureSecret(gen func() string) string {
	a.smu.Lock()
	defer a.smu.Unlock()
	if a.secret == "" {
		a.secret = gen()
		a.Entry().Info("Generated account secret")
	}
	return a.secret
}

// Secret is empty until the first successful login.
func (a *Account) Secret() string {
	a.smu.Lock()
	defer a.smu.Unlock()
	return a.secret
}

// Create opens a session named sid with open and registers it. The sid is
// reserved while opening, so concurrent creates of one sid open one adapter
// and other calls on the account do not wait for the engine.
func (a *Account) Create(sid string, open func() (*session.Session, error)) error {
	if err := session.ValidateID(sid); err != nil {
		return err
	}
	a.mu.Lock()
	if _, ok := a.sessions[sid]; ok || a.pending[sid] {
		a.mu.Unlock()
		return errors.Conflict(errors.SessionExists, "session %s already exists", sid)
	}
	a.pending[sid] = true
	generation := a.generation
	a.mu.Unlock()

	s, err := open()

	a.mu.Lock()
	delete(a.pending, sid)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	if generation != a.generation {
		// Every session was closed while this one was opening.
		a.mu.Unlock()
		if cerr := s.Close(); cerr != nil {
			a.Entry().WithError(cerr).Warnf("Closing session %s", sid)
		}
		return errors.NotFound(errors.SessionUnknown, "session %s was closed while opening", sid)
	}
	a.sessions[sid] = s
	a.mu.Unlock()
	a.stat.Counter(stats.AccountSessionCreatedCounter).Inc(1)
	a.changed(1)
	return nil
}

// SessionIDs returns the ids of the open sessions, sorted.
func (a *Account) SessionIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.sessions))
	for sid := range a.sessions {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

func (a *Account) Session(sid string) (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sid]
	if !ok {
		return nil, errors.NotFound(errors.SessionUnknown, "no session %s", sid)
	}
	return s, nil
}

// Close removes the session sid and closes it.
func (a *Account) Close(sid string) error {
	a.mu.Lock()
	s, ok := a.sessions[sid]
	if ok {
		delete(a.sessions, sid)
	}
	a.mu.Unlock()
	if !ok {
		return errors.NotFound(errors.SessionUnknown, "no session %s", sid)
	}
	a.changed(-1)
	a.stat.Counter(stats.AccountSessionClosedCounter).Inc(1)
	return s.Close()
}

// CloseAll removes every session and closes them concurrently. The returned
// error lists the sessions that failed to close.
func (a *Account) CloseAll() error {
	a.mu.Lock()
	sessions := a.sessions
	a.sessions = map[string]*session.Session{}
	a.generation++
	a.mu.Unlock()
	if len(sessions) == 0 {
		return nil
	}
	a.changed(-len(sessions))
	a.stat.Counter(stats.AccountSessionClosedCounter).Inc(int64(len(sessions)))

	var failed []string
	runner := async.NewRunner()
	for sid, s := range sessions {
		sid := sid
		runner.RunAsync(s.Close, func(err error) {
			if err != nil {
				a.Entry().WithError(err).Warnf("Closing session %s", sid)
				failed = append(failed, fmt.Sprintf("%s: %v", sid, err))
			}
		})
	}
	runner.Drain()
	if len(failed) > 0 {
		sort.Strings(failed)
		return errors.Upstream(errors.EngineFailure, nil, "closing sessions of %s: %s", a.Identity, strings.Join(failed, "; "))
	}
	return nil
}

func (a *Account) changed(delta int) {
	if a.onSessions != nil {
		a.onSessions(delta)
	}
}

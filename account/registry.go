package account

import (
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/async"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
)

// Registry resolves identities to accounts. The set of accounts is fixed at
// construction.
type Registry interface {
	Lookup(identity string) (*Account, bool)
	// Accounts returns every account, ordered by identity.
	Accounts() []*Account
	// Shutdown closes every session of every account.
	Shutdown() error
}

// Provision describes one account to create at startup.
type Provision struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type staticRegistry struct {
	accounts map[string]*Account
	stat     stats.StatsReceiver

	mu   sync.Mutex
	live int
}

// NewRegistry creates one account per provision. Usernames must be unique and non-empty.
func NewRegistry(provisions []Provision, stat stats.StatsReceiver) (Registry, error) {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	r := &staticRegistry{accounts: map[string]*Account{}, stat: stat}
	for _, p := range provisions {
		if p.Username == "" {
			return nil, errors.Validation(errors.BadRequest, "account without username")
		}
		if _, ok := r.accounts[p.Username]; ok {
			return nil, errors.Validation(errors.BadRequest, "account %s provisioned twice", p.Username)
		}
		r.accounts[p.Username] = newAccount(p.Username, p.Password, stat, r.sessionsChanged)
	}
	r.stat.Gauge(stats.AccountLiveSessionsGauge).Update(0)
	return r, nil
}

func (r *staticRegistry) Lookup(identity string) (*Account, bool) {
	a, ok := r.accounts[identity]
	return a, ok
}

func (r *staticRegistry) Accounts() []*Account {
	accounts := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Identity < accounts[j].Identity })
	return accounts
}

func (r *staticRegistry) Shutdown() error {
	var failed []string
	runner := async.NewRunner()
	for _, a := range r.Accounts() {
		a := a
		runner.RunAsync(a.CloseAll, func(err error) {
			if err != nil {
				log.WithError(err).Errorf("Closing sessions of %s", a.Identity)
				failed = append(failed, err.Error())
			}
		})
	}
	runner.Drain()
	if len(failed) > 0 {
		return errors.Upstream(errors.EngineFailure, nil, "shutdown: %s", strings.Join(failed, "; "))
	}
	return nil
}

func (r *staticRegistry) sessionsChanged(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live += delta
	r.stat.Gauge(stats.AccountLiveSessionsGauge).Update(int64(r.live))
}

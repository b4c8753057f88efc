package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/log/tags"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/orchestrator/local"
	"github.com/pilotapi/pilotapi/session"
)

type fixture struct {
	stat     stats.StatsReceiver
	registry Registry
	account  *Account
	open     session.AdapterFactory
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	engine, err := local.NewEngine(local.Config{
		ClientDir:        dir,
		SandboxDir:       t.TempDir(),
		PilotLaunchDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	stat := stats.NewCustomStatsReceiver(stats.NewFinagleStatsRegistry)
	r, err := NewRegistry([]Provision{{Username: "rct", Password: "lacidar"}, {Username: "other", Password: "x"}}, stat)
	require.NoError(t, err)
	a, ok := r.Lookup("rct")
	require.True(t, ok)
	return &fixture{stat: stat, registry: r, account: a, open: session.EngineAdapters(engine, dir, stat)}
}

func (f *fixture) opener(sid string) func() (*session.Session, error) {
	return func() (*session.Session, error) {
		return session.Open(context.Background(), sid, f.open, f.account.LogTags)
	}
}

func (f *fixture) live() int64 {
	return f.stat.Gauge(stats.AccountLiveSessionsGauge).Value()
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Provision{{Username: "rct"}, {Username: "rct"}}, nil)
	assert.True(t, errors.Is(err, errors.ValidationKind))
	_, err = NewRegistry([]Provision{{Password: "x"}}, nil)
	assert.True(t, errors.Is(err, errors.ValidationKind))
}

func TestRegistryLookup(t *testing.T) {
	f := newFixture(t)
	_, ok := f.registry.Lookup("nobody")
	assert.False(t, ok)

	accounts := f.registry.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, "other", accounts[0].Identity)
	assert.Equal(t, "rct", accounts[1].Identity)

	assert.True(t, f.account.CheckPassword("lacidar"))
	assert.False(t, f.account.CheckPassword("lacidaR"))
	assert.False(t, f.account.CheckPassword(""))
}

func TestEnsureSecretGeneratesOnce(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.account.Secret())
	calls := 0
	gen := func() string { calls++; return "s3cr3t" }
	assert.Equal(t, "s3cr3t", f.account.EnsureSecret(gen))
	assert.Equal(t, "s3cr3t", f.account.EnsureSecret(func() string { return "other" }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "s3cr3t", f.account.Secret())
}

func TestCreateListClose(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.account.Create("foo.0", f.opener("foo.0")))
	require.NoError(t, f.account.Create("bar", f.opener("bar")))
	assert.Equal(t, []string{"bar", "foo.0"}, f.account.SessionIDs())
	assert.EqualValues(t, 2, f.live())

	s, err := f.account.Session("foo.0")
	require.NoError(t, err)
	assert.Equal(t, "foo.0", s.ID)
	assert.Equal(t, "rct", s.Account)

	require.NoError(t, f.account.Close("foo.0"))
	assert.Equal(t, []string{"bar"}, f.account.SessionIDs())
	_, err = s.InspectPilots(nil)
	assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))

	err = f.account.Close("foo.0")
	assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))
	_, err = f.account.Session("foo.0")
	assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))

	require.NoError(t, f.account.Close("bar"))
	assert.Empty(t, f.account.SessionIDs())
	assert.EqualValues(t, 0, f.live())
}

func TestDoubleCreateConflicts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.account.Create("foo.0", f.opener("foo.0")))

	opened := false
	err := f.account.Create("foo.0", func() (*session.Session, error) {
		opened = true
		return nil, nil
	})
	assert.Equal(t, errors.SessionExists, errors.ReasonOf(err))
	assert.True(t, errors.Is(err, errors.ConflictKind))
	assert.False(t, opened)
	assert.Equal(t, []string{"foo.0"}, f.account.SessionIDs())
	require.NoError(t, f.account.CloseAll())
}

func TestConcurrentCreateOpensOnce(t *testing.T) {
	f := newFixture(t)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.account.Create("foo.0", f.opener("foo.0")); err != nil {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 7, conflicts)
	assert.Equal(t, []string{"foo.0"}, f.account.SessionIDs())
	assert.EqualValues(t, 1, f.live())
	require.NoError(t, f.registry.Shutdown())
}

func TestCreateInvalidID(t *testing.T) {
	f := newFixture(t)
	err := f.account.Create("../etc", f.opener("../etc"))
	assert.True(t, errors.Is(err, errors.ValidationKind))
	assert.Empty(t, f.account.SessionIDs())
}

func TestShutdownClosesEverySession(t *testing.T) {
	f := newFixture(t)
	other, _ := f.registry.Lookup("other")
	var sessions []*session.Session
	for _, sid := range []string{"a", "b", "c"} {
		require.NoError(t, f.account.Create(sid, f.opener(sid)))
		s, err := f.account.Session(sid)
		require.NoError(t, err)
		sessions = append(sessions, s)
	}
	require.NoError(t, other.Create("a", func() (*session.Session, error) {
		return session.Open(context.Background(), "a", f.open, tags.LogTags{Account: "other"})
	}))
	assert.EqualValues(t, 4, f.live())

	require.NoError(t, f.registry.Shutdown())
	assert.Empty(t, f.account.SessionIDs())
	assert.Empty(t, other.SessionIDs())
	assert.EqualValues(t, 0, f.live())
	for _, s := range sessions {
		_, err := s.InspectTasks(nil)
		assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))
	}
	assert.EqualValues(t, 4, f.stat.Counter(stats.AccountSessionClosedCounter).Count())
}

func TestCreateDoesNotBlockAccount(t *testing.T) {
	f := newFixture(t)
	f.account.EnsureSecret(func() string { return "s3cr3t" })
	require.NoError(t, f.account.Create("bar", f.opener("bar")))

	opening, release := make(chan struct{}), make(chan struct{})
	created := make(chan error, 1)
	go func() {
		created <- f.account.Create("slow", func() (*session.Session, error) {
			close(opening)
			<-release
			return f.opener("slow")()
		})
	}()
	<-opening

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Equal(t, "s3cr3t", f.account.Secret())
		assert.Equal(t, []string{"bar"}, f.account.SessionIDs())
		_, err := f.account.Session("bar")
		assert.NoError(t, err)
		_, err = f.account.Session("slow")
		assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))

		opened := false
		err = f.account.Create("slow", func() (*session.Session, error) {
			opened = true
			return nil, nil
		})
		assert.Equal(t, errors.SessionExists, errors.ReasonOf(err))
		assert.False(t, opened)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("account calls blocked while a session was opening")
	}

	close(release)
	require.NoError(t, <-created)
	assert.Equal(t, []string{"bar", "slow"}, f.account.SessionIDs())
	assert.EqualValues(t, 2, f.live())
	require.NoError(t, f.account.CloseAll())
}

func TestCreateFailureReleasesID(t *testing.T) {
	f := newFixture(t)
	err := f.account.Create("foo.0", func() (*session.Session, error) {
		return nil, errors.Upstream(errors.EngineFailure, nil, "engine down")
	})
	assert.Equal(t, errors.EngineFailure, errors.ReasonOf(err))
	assert.Empty(t, f.account.SessionIDs())

	require.NoError(t, f.account.Create("foo.0", f.opener("foo.0")))
	require.NoError(t, f.account.CloseAll())
}

func TestCloseAllWhileOpening(t *testing.T) {
	f := newFixture(t)
	opening, release := make(chan struct{}), make(chan struct{})
	var s *session.Session
	created := make(chan error, 1)
	go func() {
		created <- f.account.Create("slow", func() (*session.Session, error) {
			close(opening)
			<-release
			var err error
			s, err = f.opener("slow")()
			return s, err
		})
	}()
	<-opening
	require.NoError(t, f.account.CloseAll())
	close(release)

	err := <-created
	assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))
	assert.Empty(t, f.account.SessionIDs())
	assert.EqualValues(t, 0, f.live())
	require.NotNil(t, s)
	_, err = s.InspectPilots(nil)
	assert.Equal(t, errors.SessionUnknown, errors.ReasonOf(err))
}

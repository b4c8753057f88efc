package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/common/log/tags"
	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/orchestrator/local"
)

func openLocal(t *testing.T) *Session {
	dir := t.TempDir()
	engine, err := local.NewEngine(local.Config{
		ClientDir:        dir,
		SandboxDir:       t.TempDir(),
		PilotLaunchDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	s, err := Open(context.Background(), "foo.0", EngineAdapters(engine, dir, nil), tags.LogTags{Account: "rct"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConcurrentSubmitsGetDistinctIDs(t *testing.T) {
	s := openLocal(t)
	const writers, perWriter = 8, 5

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			descs := make([]orchestrator.PilotDescription, perWriter)
			for j := range descs {
				descs[j] = orchestrator.PilotDescription{Resource: "local.localhost", Cores: 1}
			}
			pids, err := s.SubmitPilots(context.Background(), descs)
			assert.NoError(t, err)
			assert.Len(t, pids, perWriter)
			mu.Lock()
			all = append(all, pids...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, pid := range all {
		assert.False(t, seen[pid], "%s returned twice", pid)
		seen[pid] = true
	}
	assert.Len(t, seen, writers*perWriter)

	snaps, err := s.InspectPilots(nil)
	require.NoError(t, err)
	require.Len(t, snaps, writers*perWriter)
	for _, snap := range snaps {
		assert.True(t, seen[snap.UID], "%s was never returned by a submit", snap.UID)
	}
}

func TestInspectAndSubmitWhileWaiting(t *testing.T) {
	s := openLocal(t)
	ctx := context.Background()
	// Pilots without a runtime stay active until canceled.
	pids, err := s.SubmitPilots(ctx, []orchestrator.PilotDescription{{Resource: "local.localhost", Cores: 1}})
	require.NoError(t, err)
	tids, err := s.SubmitTasks(ctx, []orchestrator.TaskDescription{{Executable: "/bin/true"}})
	require.NoError(t, err)

	forever := -1.0
	waited := make(chan []orchestrator.State, 1)
	go func() {
		states, err := s.WaitPilots(ctx, pids, nil, &forever)
		assert.NoError(t, err)
		waited <- states
	}()
	select {
	case <-waited:
		t.Fatal("wait returned before the pilot was final")
	case <-time.After(100 * time.Millisecond):
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		snaps, err := s.InspectPilots(pids)
		assert.NoError(t, err)
		assert.Len(t, snaps, 1)
		tsnaps, err := s.InspectTasks(tids)
		assert.NoError(t, err)
		assert.Len(t, tsnaps, 1)
		more, err := s.SubmitPilots(ctx, []orchestrator.PilotDescription{{Resource: "local.localhost", Cores: 1}})
		assert.NoError(t, err)
		assert.Len(t, more, 1)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session calls blocked behind a pending wait")
	}

	states, err := s.CancelPilots(ctx, pids)
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.State{orchestrator.CANCELED}, states)
	select {
	case states := <-waited:
		assert.Equal(t, []orchestrator.State{orchestrator.CANCELED}, states)
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after cancel")
	}
}

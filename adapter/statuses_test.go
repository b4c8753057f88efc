package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/orchestrator"
)

func note(id string, s orchestrator.State) orchestrator.Notification {
	return orchestrator.Notification{ID: id, State: s, Time: time.Now()}
}

func TestNotificationBeforeRegister(t *testing.T) {
	table := newStatusTable()
	assert.True(t, table.Update(note("pilot.0001", orchestrator.LAUNCHING)))
	assert.False(t, table.Has("pilot.0001"), "unregistered ids are invisible")
	assert.Empty(t, table.IDs())

	table.Register("pilot.0000", orchestrator.NEW, nil, time.Now())
	table.Register("pilot.0001", orchestrator.NEW, nil, time.Now())
	assert.Equal(t, []string{"pilot.0000", "pilot.0001"}, table.IDs())

	statuses, missing := table.Get([]string{"pilot.0001"})
	require.Empty(t, missing)
	assert.Equal(t, orchestrator.LAUNCHING, statuses[0].State, "register must not reset a newer state")

	// Registering twice keeps one entry.
	table.Register("pilot.0001", orchestrator.NEW, nil, time.Now())
	assert.Equal(t, 2, table.Len())
}

func TestUpdateIgnoresFinalAndBackwards(t *testing.T) {
	table := newStatusTable()
	table.Register("t", orchestrator.NEW, nil, time.Now())
	assert.True(t, table.Update(note("t", orchestrator.EXECUTING)))
	assert.False(t, table.Update(note("t", orchestrator.SCHEDULING)))
	assert.False(t, table.Update(note("t", orchestrator.EXECUTING)))
	code := 0
	assert.True(t, table.Update(orchestrator.Notification{ID: "t", State: orchestrator.DONE, ExitCode: &code, Pilot: "pilot.0000"}))
	assert.False(t, table.Update(note("t", orchestrator.FAILED)))

	statuses, _ := table.Get(nil)
	st := statuses[0]
	assert.Equal(t, orchestrator.DONE, st.State)
	assert.Equal(t, "pilot.0000", st.Pilot)
	require.NotNil(t, st.ExitCode)
	assert.Equal(t, 0, *st.ExitCode)
	var history []orchestrator.State
	for _, h := range st.History {
		history = append(history, h.State)
	}
	assert.Equal(t, []orchestrator.State{orchestrator.NEW, orchestrator.EXECUTING, orchestrator.DONE}, history)
}

func TestWaitTimeoutZeroIsImmediate(t *testing.T) {
	table := newStatusTable()
	table.Register("a", orchestrator.NEW, nil, time.Now())
	start := time.Now()
	states, err := table.Wait(context.Background(), []string{"a"}, orchestrator.MaskFinal, 0)
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.State{orchestrator.NEW}, states)
	assert.True(t, time.Since(start) < time.Second)
}

func TestWaitDeadlineIsNotAnError(t *testing.T) {
	table := newStatusTable()
	table.Register("a", orchestrator.NEW, nil, time.Now())
	table.Update(note("a", orchestrator.LAUNCHING))
	states, err := table.Wait(context.Background(), []string{"a"}, orchestrator.MaskFinal, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []orchestrator.State{orchestrator.LAUNCHING}, states)
}

func TestWaitWakesOnNotification(t *testing.T) {
	table := newStatusTable()
	table.Register("a", orchestrator.NEW, nil, time.Now())
	table.Register("b", orchestrator.NEW, nil, time.Now())

	returned := make(chan []orchestrator.State)
	go func() {
		states, err := table.Wait(context.Background(), []string{"a", "b"}, orchestrator.MaskFinal, -1)
		assert.NoError(t, err)
		returned <- states
	}()

	table.Update(note("a", orchestrator.DONE))
	select {
	case <-returned:
		t.Fatal("wait returned while b was not final")
	case <-time.After(50 * time.Millisecond):
	}

	table.Update(note("b", orchestrator.CANCELED))
	select {
	case states := <-returned:
		assert.Equal(t, []orchestrator.State{orchestrator.DONE, orchestrator.CANCELED}, states)
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after all targets were final")
	}
}

func TestWaitFailAndClose(t *testing.T) {
	table := newStatusTable()
	table.Register("a", orchestrator.NEW, nil, time.Now())

	closed := make(chan []orchestrator.State)
	go func() {
		states, _ := table.Wait(context.Background(), []string{"a"}, orchestrator.MaskFinal, -1)
		closed <- states
	}()
	time.Sleep(10 * time.Millisecond)
	table.Close()
	assert.Equal(t, []orchestrator.State{orchestrator.NEW}, <-closed)

	failing := newStatusTable()
	failing.Register("a", orchestrator.NEW, nil, time.Now())
	failed := make(chan error)
	go func() {
		_, err := failing.Wait(context.Background(), []string{"a"}, orchestrator.MaskFinal, -1)
		failed <- err
	}()
	time.Sleep(10 * time.Millisecond)
	failing.Fail(assert.AnError)
	assert.Equal(t, assert.AnError, <-failed)
}

func TestWaitCanceledContext(t *testing.T) {
	table := newStatusTable()
	table.Register("a", orchestrator.NEW, nil, time.Now())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	states, err := table.Wait(ctx, []string{"a"}, orchestrator.MaskFinal, -1)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Equal(t, []orchestrator.State{orchestrator.NEW}, states)
}

// Applying any sequence of notifications never moves an entry backwards and
// never changes a final entry.
func TestStateTableMonotonic(t *testing.T) {
	all := []orchestrator.State{
		orchestrator.NEW, orchestrator.LAUNCHING, orchestrator.ACTIVE, orchestrator.SCHEDULING,
		orchestrator.EXECUTING, orchestrator.DONE, orchestrator.FAILED, orchestrator.CANCELED,
	}
	properties := gopter.NewProperties(nil)
	properties.Property("state rank never decreases", prop.ForAll(
		func(idxs []int) bool {
			table := newStatusTable()
			table.Register("x", orchestrator.NEW, nil, time.Now())
			prev := orchestrator.NEW
			for _, i := range idxs {
				table.Update(note("x", all[i]))
				statuses, _ := table.Get(nil)
				cur := statuses[0].State
				if cur.Rank() < prev.Rank() || (prev.IsFinal() && cur != prev) {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(all)-1)),
	))
	properties.TestingRun(t)
}

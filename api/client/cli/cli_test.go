package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/account"
	"github.com/pilotapi/pilotapi/adapter"
	"github.com/pilotapi/pilotapi/api"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/orchestrator/local"
	"github.com/pilotapi/pilotapi/session"
)

func newServer(t *testing.T) string {
	workDir := t.TempDir()
	engine, err := local.NewEngine(local.Config{
		ClientDir:        workDir,
		SandboxDir:       t.TempDir(),
		PilotLaunchDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	registry, err := account.NewRegistry([]account.Provision{{Username: "rct", Password: "lacidar"}}, nil)
	require.NoError(t, err)
	server := api.NewServer(api.ServerConfig{}, registry, session.EngineAdapters(engine, workDir, nil), nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		registry.Shutdown()
		engine.Close()
	})
	return ts.URL
}

// run executes pilotcl with args and returns what it printed.
func run(t *testing.T, url string, args ...string) (string, error) {
	cl := NewCLIClient(context.Background())
	var out bytes.Buffer
	cl.Out = &out
	cl.RootCmd.SetArgs(append([]string{"--url", url, "-u", "rct", "-p", "lacidar"}, args...))
	err := cl.Exec()
	return out.String(), err
}

func decode(t *testing.T, out string, v interface{}) {
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestLogin(t *testing.T) {
	url := newServer(t)
	_, err := run(t, url, "login")
	require.NoError(t, err)

	cl := NewCLIClient(context.Background())
	cl.RootCmd.SetArgs([]string{"--url", url, "-u", "rct", "-p", "nope", "login"})
	err = cl.Exec()
	assert.Equal(t, errors.ExitCode(errors.AuthFailureExitCode), errors.ExitCodeFor(err))

	userURL := strings.Replace(url, "http://", "http://rct:lacidar@", 1)
	cl = NewCLIClient(context.Background())
	cl.RootCmd.SetArgs([]string{"--url", userURL, "sessions", "list"})
	cl.Out = &bytes.Buffer{}
	require.NoError(t, cl.Exec())
}

func TestSessionsAndTasks(t *testing.T) {
	url := newServer(t)

	// Sessions are kept by the server between invocations.
	_, err := run(t, url, "sessions", "create", "foo.0", "foo.1")
	require.NoError(t, err)
	out, err := run(t, url, "sessions", "list")
	require.NoError(t, err)
	var sids []string
	decode(t, out, &sids)
	assert.Equal(t, []string{"foo.0", "foo.1"}, sids)

	_, err = run(t, url, "sessions", "create", "foo.0")
	assert.Equal(t, errors.ExitCode(errors.ConflictFailureExitCode), errors.ExitCodeFor(err))

	_, err = run(t, url, "tasks", "inspect")
	assert.Error(t, err, "no session given")

	out, err = run(t, url, "-s", "foo.0", "tasks", "submit", "-n", "3", "--cpu_threads", "4", "--", "/bin/sh", "-c", "echo $OMP_NUM_THREADS")
	require.NoError(t, err)
	var tids []string
	decode(t, out, &tids)
	require.Len(t, tids, 3)

	out, err = run(t, url, "-s", "foo.0", "tasks", "wait")
	require.NoError(t, err)
	var states []orchestrator.State
	decode(t, out, &states)
	assert.Equal(t, []orchestrator.State{orchestrator.DONE, orchestrator.DONE, orchestrator.DONE}, states)

	out, err = run(t, url, "-s", "foo.0", "tasks", "inspect", tids[2])
	require.NoError(t, err)
	var snaps []adapter.TaskSnapshot
	decode(t, out, &snaps)
	require.Len(t, snaps, 1)
	assert.Equal(t, tids[2], snaps[0].UID)

	out, err = run(t, url, "-s", "foo.0", "tasks", "stdout", tids[0])
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	_, err = run(t, url, "-s", "foo.0", "tasks", "stderr", tids[0])
	assert.Equal(t, errors.ExitCode(errors.NotReadyFailureExitCode), errors.ExitCodeFor(err))

	_, err = run(t, url, "sessions", "close", "--all")
	require.NoError(t, err)
	_, err = run(t, url, "-s", "foo.0", "tasks", "inspect")
	assert.Equal(t, errors.ExitCode(errors.NotFoundFailureExitCode), errors.ExitCodeFor(err))
}

func TestPilots(t *testing.T) {
	url := newServer(t)
	_, err := run(t, url, "sessions", "create", "p")
	require.NoError(t, err)

	out, err := run(t, url, "-s", "p", "pilots", "submit", "-n", "2", "--cores", "2")
	require.NoError(t, err)
	var pids []string
	decode(t, out, &pids)
	require.Len(t, pids, 2)

	out, err = run(t, url, "-s", "p", "pilots", "wait", "--states", "active", pids[0])
	require.NoError(t, err)
	var states []orchestrator.State
	decode(t, out, &states)
	assert.Equal(t, []orchestrator.State{orchestrator.ACTIVE}, states)

	_, err = run(t, url, "-s", "p", "pilots", "wait", "--states", "RUNNING")
	assert.Error(t, err)

	out, err = run(t, url, "-s", "p", "pilots", "cancel")
	require.NoError(t, err)
	decode(t, out, &states)
	assert.Equal(t, []orchestrator.State{orchestrator.CANCELED, orchestrator.CANCELED}, states)

	out, err = run(t, url, "-s", "p", "pilots", "inspect")
	require.NoError(t, err)
	var snaps []adapter.PilotSnapshot
	decode(t, out, &snaps)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[1].Description.Cores)

	_, err = run(t, url, "sessions", "close")
	assert.Error(t, err)
	_, err = run(t, url, "-s", "p", "sessions", "close")
	require.NoError(t, err)
}

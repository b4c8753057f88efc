package local

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/orchestrator"
)

func TestResolveURL(t *testing.T) {
	p, err := resolveURL("task:///STDOUT", "task.000001", "/d", "/sandbox", "/client")
	require.NoError(t, err)
	assert.Equal(t, "/sandbox/STDOUT", p)

	p, err = resolveURL("client:///data.x/${TASK_ID}.out", "task.000001", "/d", "/sandbox", "/client")
	require.NoError(t, err)
	assert.Equal(t, "/client/data.x/task.000001.out", p)

	p, err = resolveURL("result.txt", "task.000001", "/d", "/sandbox", "/client")
	require.NoError(t, err)
	assert.Equal(t, "/d/result.txt", p)

	p, err = resolveURL("file:///tmp/x", "task.000001", "/d", "/sandbox", "/client")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", p)

	for _, bad := range []string{"client:///../etc/passwd", "srm://host/x", "task:///", "file://relative"} {
		_, err := resolveURL(bad, "task.000001", "/d", "/sandbox", "/client")
		assert.Error(t, err, bad)
	}
}

func TestStageOutput(t *testing.T) {
	dir, err := ioutil.TempDir("", "staging-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	sandbox, client := filepath.Join(dir, "sandbox"), filepath.Join(dir, "client")
	require.NoError(t, os.MkdirAll(sandbox, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(sandbox, "STDOUT"), []byte("hello\n"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(sandbox, "moved"), []byte("m"), 0644))

	err = stageOutput([]orchestrator.StagingDirective{
		{Source: "task:///STDOUT", Target: "client:///data/${TASK_ID}.out", Action: orchestrator.Transfer},
		{Source: "task:///STDERR", Target: "client:///data/${TASK_ID}.err", Action: orchestrator.Transfer},
		{Source: "task:///moved", Target: "client:///data/moved", Action: orchestrator.Move},
	}, "task.000007", sandbox, client)
	require.NoError(t, err)

	data, err := ioutil.ReadFile(filepath.Join(client, "data", "task.000007.out"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	_, err = os.Stat(filepath.Join(client, "data", "task.000007.err"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(sandbox, "moved"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(client, "data", "moved"))
	assert.NoError(t, err)

	err = stageOutput([]orchestrator.StagingDirective{
		{Source: "task:///STDOUT", Target: "client:///x", Action: "LINK"},
	}, "task.000007", sandbox, client)
	assert.Error(t, err)
}

func TestLazyFileCreatedOnFirstWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "lazy-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "sub", "STDERR")

	f := newLazyFile(path)
	n, err := f.Write(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

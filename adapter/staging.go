package adapter

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/orchestrator"
)

// Stream names used when a task description leaves them empty.
const (
	DefaultStdout = "STDOUT"
	DefaultStderr = "STDERR"
)

const (
	stdoutSuffix = ".out"
	stderrSuffix = ".err"
)

// withOutputStaging returns a copy of d that stages both streams into the
// session's staging directory, named after the task id. Custom stream names
// are kept.
func (a *Adapter) withOutputStaging(d orchestrator.TaskDescription) orchestrator.TaskDescription {
	if d.Stdout == "" {
		d.Stdout = DefaultStdout
	}
	if d.Stderr == "" {
		d.Stderr = DefaultStderr
	}
	staging := make([]orchestrator.StagingDirective, 0, len(d.OutputStaging)+2)
	staging = append(staging, d.OutputStaging...)
	staging = append(staging,
		a.streamDirective(d.Stdout, stdoutSuffix),
		a.streamDirective(d.Stderr, stderrSuffix))
	d.OutputStaging = staging
	return d
}

func (a *Adapter) streamDirective(stream, suffix string) orchestrator.StagingDirective {
	return orchestrator.StagingDirective{
		Source: "task:///" + stream,
		Target: fmt.Sprintf("client:///%s/%s%s", a.stagingName, orchestrator.TaskIDVar, suffix),
		Action: orchestrator.Transfer,
	}
}

func (a *Adapter) stagedPath(tid, suffix string) string {
	return filepath.Join(a.stagingDir, tid+suffix)
}

// stagedRef returns the staged file of a final task, or "" if there is none.
func (a *Adapter) stagedRef(st Status, suffix string) string {
	if !st.State.IsFinal() {
		return ""
	}
	path := a.stagedPath(st.ID, suffix)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// TaskStdout returns the staged standard output of tid.
func (a *Adapter) TaskStdout(tid string) (string, error) {
	return a.readStaged(tid, stdoutSuffix, "stdout")
}

// TaskStderr returns the staged standard error of tid.
func (a *Adapter) TaskStderr(tid string) (string, error) {
	return a.readStaged(tid, stderrSuffix, "stderr")
}

func (a *Adapter) readStaged(tid, suffix, stream string) (string, error) {
	if err := a.check(); err != nil {
		return "", err
	}
	if !a.tasks.Has(tid) {
		return "", errors.NotFound(errors.UnknownTask, "unknown task %s", tid)
	}
	data, err := ioutil.ReadFile(a.stagedPath(tid, suffix))
	if os.IsNotExist(err) {
		return "", errors.NotReady(errors.OutputNotStaged, "%s of task %s is not staged", stream, tid)
	}
	if err != nil {
		return "", errors.Upstream(errors.EngineFailure, err, "reading %s of task %s", stream, tid)
	}
	return string(data), nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pilotapi/pilotapi/orchestrator"
)

type tasksSubmitCmd struct {
	file string
	desc orchestrator.TaskDescription
	env  map[string]string
	n    int
}

func (t *tasksSubmitCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "submit [-- EXECUTABLE ARG...]",
		Short: "Submit tasks, described by the command line or a JSON file",
	}
	r.Flags().StringVarP(&t.file, "file", "f", "", "JSON list of task descriptions, - for stdin")
	r.Flags().StringVar(&t.desc.Name, "name", "", "task name")
	r.Flags().IntVar(&t.desc.CPUProcesses, "cpu_processes", 1, "processes per task")
	r.Flags().IntVar(&t.desc.CPUThreads, "cpu_threads", 1, "threads per process")
	r.Flags().IntVar(&t.desc.GPUProcesses, "gpu_processes", 0, "gpu processes per task")
	r.Flags().StringToStringVar(&t.env, "env", nil, "environment, KEY=VALUE")
	r.Flags().IntVarP(&t.n, "count", "n", 1, "number of tasks")
	return r
}

func (t *tasksSubmitCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	var descs []orchestrator.TaskDescription
	switch {
	case t.file != "":
		if err := readDescriptions(cl, cmd, t.file, &descs); err != nil {
			return err
		}
	case len(args) > 0:
		d := t.desc
		d.Executable = args[0]
		d.Arguments = args[1:]
		d.Environment = t.env
		for i := 0; i < t.n; i++ {
			descs = append(descs, d)
		}
	default:
		return fmt.Errorf("nothing to submit, give --file or an executable")
	}
	tids, err := cl.Client.SubmitTasks(cl.ctx, sid, descs)
	if err != nil {
		return err
	}
	return cl.print(tids)
}

type tasksInspectCmd struct{}

func (t *tasksInspectCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [TASK...]",
		Short: "Show tasks, all of the session if none given",
	}
}

func (t *tasksInspectCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	snaps, err := cl.Client.InspectTasks(cl.ctx, sid, args...)
	if err != nil {
		return err
	}
	return cl.print(snaps)
}

type tasksWaitCmd struct {
	waitFlags
}

func (t *tasksWaitCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "wait [TASK...]",
		Short: "Wait for tasks to reach states, then release the task manager of the session",
	}
	t.register(r)
	return r
}

func (t *tasksWaitCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	states, err := parseStates(t.states)
	if err != nil {
		return err
	}
	result, err := cl.Client.WaitTasks(cl.ctx, sid, args, states, &t.timeout)
	if err != nil {
		return err
	}
	return cl.print(result)
}

type tasksOutputCmd struct {
	stream string
}

func (t *tasksOutputCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   t.stream + " TASK",
		Short: "Print the staged " + t.stream + " of a finished task",
		Args:  cobra.ExactArgs(1),
	}
}

func (t *tasksOutputCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	read := cl.Client.TaskStdout
	if t.stream == "stderr" {
		read = cl.Client.TaskStderr
	}
	out, err := read(cl.ctx, sid, args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cl.Out, out)
	return err
}

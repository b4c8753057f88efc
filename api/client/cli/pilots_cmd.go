package cli

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/pilotapi/pilotapi/orchestrator"
)

// readDescriptions decodes a JSON list of descriptions from path, "-" is stdin.
func readDescriptions(cl *CLIClient, cmd *cobra.Command, path string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = ioutil.ReadAll(cmd.InOrStdin())
	} else {
		data, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("reading descriptions from %s: %v", path, err)
	}
	return nil
}

func parseStates(names []string) ([]orchestrator.State, error) {
	states := make([]orchestrator.State, 0, len(names))
	for _, name := range names {
		st, err := orchestrator.ParseState(name)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// waitFlags are shared by the wait commands.
type waitFlags struct {
	states  []string
	timeout float64
}

func (w *waitFlags) register(r *cobra.Command) {
	r.Flags().StringSliceVar(&w.states, "states", nil, "states to wait for, final states if unset")
	r.Flags().Float64Var(&w.timeout, "timeout", -1, "seconds to wait, negative waits forever")
}

type pilotsSubmitCmd struct {
	file string
	desc orchestrator.PilotDescription
	n    int
}

func (p *pilotsSubmitCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "submit",
		Short: "Submit pilots, described by flags or a JSON file",
		Args:  cobra.NoArgs,
	}
	r.Flags().StringVarP(&p.file, "file", "f", "", "JSON list of pilot descriptions, - for stdin")
	r.Flags().StringVar(&p.desc.Resource, "resource", "local.localhost", "resource to acquire")
	r.Flags().IntVar(&p.desc.Cores, "cores", 1, "cores per pilot")
	r.Flags().IntVar(&p.desc.GPUs, "gpus", 0, "gpus per pilot")
	r.Flags().IntVar(&p.desc.Runtime, "runtime", 0, "pilot lifetime in minutes")
	r.Flags().StringVar(&p.desc.Queue, "queue", "", "batch queue")
	r.Flags().StringVar(&p.desc.Project, "project", "", "project to charge")
	r.Flags().IntVarP(&p.n, "count", "n", 1, "number of pilots")
	return r
}

func (p *pilotsSubmitCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	var descs []orchestrator.PilotDescription
	if p.file != "" {
		if err := readDescriptions(cl, cmd, p.file, &descs); err != nil {
			return err
		}
	} else {
		for i := 0; i < p.n; i++ {
			descs = append(descs, p.desc)
		}
	}
	pids, err := cl.Client.SubmitPilots(cl.ctx, sid, descs)
	if err != nil {
		return err
	}
	return cl.print(pids)
}

type pilotsInspectCmd struct{}

func (p *pilotsInspectCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [PILOT...]",
		Short: "Show pilots, all of the session if none given",
	}
}

func (p *pilotsInspectCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	snaps, err := cl.Client.InspectPilots(cl.ctx, sid, args...)
	if err != nil {
		return err
	}
	return cl.print(snaps)
}

type pilotsWaitCmd struct {
	waitFlags
}

func (p *pilotsWaitCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "wait [PILOT...]",
		Short: "Wait for pilots to reach states",
	}
	p.register(r)
	return r
}

func (p *pilotsWaitCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	states, err := parseStates(p.states)
	if err != nil {
		return err
	}
	result, err := cl.Client.WaitPilots(cl.ctx, sid, args, states, &p.timeout)
	if err != nil {
		return err
	}
	return cl.print(result)
}

type pilotsCancelCmd struct{}

func (p *pilotsCancelCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [PILOT...]",
		Short: "Cancel pilots, all of the session if none given, and wait until they are final",
	}
}

func (p *pilotsCancelCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sid, err := cl.session()
	if err != nil {
		return err
	}
	states, err := cl.Client.CancelPilots(cl.ctx, sid, args...)
	if err != nil {
		return err
	}
	return cl.print(states)
}

package cli

import (
	"github.com/spf13/cobra"
)

type sessionsCreateCmd struct{}

func (s *sessionsCreateCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "create SESSION...",
		Short: "Create named sessions",
		Args:  cobra.MinimumNArgs(1),
	}
}

func (s *sessionsCreateCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	for _, sid := range args {
		if err := cl.Client.CreateSession(cl.ctx, sid); err != nil {
			return err
		}
	}
	return nil
}

type sessionsListCmd struct{}

func (s *sessionsListCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the open sessions",
		Args:  cobra.NoArgs,
	}
}

func (s *sessionsListCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	sids, err := cl.Client.Sessions(cl.ctx)
	if err != nil {
		return err
	}
	return cl.print(sids)
}

type sessionsCloseCmd struct {
	all bool
}

func (s *sessionsCloseCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "close [SESSION...]",
		Short: "Close sessions, canceling their pilots and tasks",
	}
	r.Flags().BoolVar(&s.all, "all", false, "close every session")
	return r
}

func (s *sessionsCloseCmd) Run(cl *CLIClient, cmd *cobra.Command, args []string) error {
	if s.all {
		return cl.Client.CloseAllSessions(cl.ctx)
	}
	if len(args) == 0 {
		sid, err := cl.session()
		if err != nil {
			return err
		}
		args = []string{sid}
	}
	for _, sid := range args {
		if err := cl.Client.CloseSession(cl.ctx, sid); err != nil {
			return err
		}
	}
	return nil
}

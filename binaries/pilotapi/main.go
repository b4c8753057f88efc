package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pilotapi/pilotapi/account"
	"github.com/pilotapi/pilotapi/api"
	"github.com/pilotapi/pilotapi/common/log/hooks"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/config/pilotconfig"
	"github.com/pilotapi/pilotapi/orchestrator/local"
	"github.com/pilotapi/pilotapi/session"
)

// Time given to running requests at shutdown.
const shutdownGrace = 10 * time.Second

func main() {
	log.AddHook(hooks.NewContextHook())

	v := viper.New()
	pilotconfig.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   "pilotapi",
		Short: "pilotapi serves the pilot API on top of a local orchestration engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
		SilenceUsage: true,
	}
	flags := cmd.Flags()
	flags.String(pilotconfig.HostKey, pilotconfig.DefaultHost, "Bind host")
	flags.Int(pilotconfig.PortKey, pilotconfig.DefaultPort, "Bind port")
	flags.String(pilotconfig.WorkDirKey, pilotconfig.DefaultWorkDir, "Directory holding the staged task output")
	flags.String(pilotconfig.LogLevelKey, pilotconfig.DefaultLogLevel, "Log everything at this level and above (error|info|debug)")
	flags.String(pilotconfig.AccountsFileKey, "", "TOML file provisioning the accounts, rct/lacidar if unset")
	flags.Int(pilotconfig.MaxConnsKey, 0, "Maximum simultaneous connections, 0 is unlimited")
	flags.Int(pilotconfig.MaxRequestsPerSecKey, 0, "Maximum requests per second, 0 is unlimited")
	flags.Int(pilotconfig.MaxRequestsBurstKey, 0, "Maximum burst of requests above the rate")
	flags.Int("max_concurrent_tasks", 0, "Tasks executing at once, the number of CPUs if 0")
	flags.Duration("pilot_launch_delay", 500*time.Millisecond, "Time a pilot spends launching")
	flags.String("sandbox_dir", "", "Directory of the task sandboxes, a temp dir if unset")

	for _, key := range []string{
		pilotconfig.HostKey, pilotconfig.PortKey, pilotconfig.WorkDirKey, pilotconfig.LogLevelKey,
		pilotconfig.AccountsFileKey, pilotconfig.MaxConnsKey, pilotconfig.MaxRequestsPerSecKey,
		pilotconfig.MaxRequestsBurstKey,
	} {
		v.BindPFlag(key, flags.Lookup(key))
	}
	v.BindPFlag(pilotconfig.MaxConcurrentTasksKey, flags.Lookup("max_concurrent_tasks"))
	v.BindPFlag(pilotconfig.PilotLaunchDelayKey, flags.Lookup("pilot_launch_delay"))
	v.BindPFlag(pilotconfig.SandboxDirKey, flags.Lookup("sandbox_dir"))

	if err := cmd.Execute(); err != nil {
		log.Fatal("Error serving pilot API: ", err)
	}
}

func serve(v *viper.Viper) error {
	cfg, err := pilotconfig.Load(v)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	stat := stats.DefaultStatsReceiver()

	// The engine stages output relative to the directory the adapters read it from.
	engine, err := local.NewEngine(local.Config{
		ClientDir:          cfg.WorkDir,
		SandboxDir:         cfg.Engine.SandboxDir,
		MaxConcurrentTasks: cfg.Engine.MaxConcurrentTasks,
		PilotLaunchDelay:   cfg.Engine.PilotLaunchDelay,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	registry, err := account.NewRegistry(cfg.Accounts, stat.Scope("accounts"))
	if err != nil {
		return err
	}
	server := api.NewServer(api.ServerConfig{
		Addr:             cfg.Addr(),
		ListenerMaxConns: cfg.MaxConns,
		RateLimitPerSec:  cfg.MaxRequestsPerSec,
		BurstLimit:       cfg.MaxRequestsBurst,
	}, registry, session.EngineAdapters(engine, cfg.WorkDir, stat.Scope("adapter")), stat)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	terminated := make(chan struct{})
	go func() {
		defer close(terminated)
		sig := <-sigs
		log.Infof("Received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		server.Terminate(ctx)
	}()

	log.Infof("Starting pilot API on %s, %d accounts, staging below %s", cfg.Addr(), len(cfg.Accounts), cfg.WorkDir)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	// Serve returns as soon as shutdown starts, sessions are still closing.
	<-terminated
	return nil
}

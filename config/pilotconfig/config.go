// Package pilotconfig loads the settings of the pilot API server.
//
// Settings come from command line flags bound into viper, then PILOTAPI_*
// environment variables, then the defaults below. Accounts are provisioned
// from a TOML file:
//
//	[[accounts]]
//	username = "rct"
//	password = "lacidar"
package pilotconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pilotapi/pilotapi/account"
)

const EnvPrefix = "PILOTAPI"

// Keys, also the names of the flags bound to them.
const (
	HostKey               = "host"
	PortKey               = "port"
	WorkDirKey            = "workdir"
	LogLevelKey           = "log_level"
	AccountsFileKey       = "accounts"
	MaxConnsKey           = "max_conns"
	MaxRequestsPerSecKey  = "max_requests_per_sec"
	MaxRequestsBurstKey   = "max_requests_burst"
	MaxConcurrentTasksKey = "engine.max_concurrent_tasks"
	PilotLaunchDelayKey   = "engine.pilot_launch_delay"
	SandboxDirKey         = "engine.sandbox_dir"
)

const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 8090
	DefaultWorkDir  = "."
	DefaultLogLevel = "info"
)

// DefaultAccounts are provisioned when no accounts file is configured.
var DefaultAccounts = []account.Provision{{Username: "rct", Password: "lacidar"}}

type EngineConfig struct {
	MaxConcurrentTasks int
	PilotLaunchDelay   time.Duration
	SandboxDir         string
}

type Config struct {
	Host              string
	Port              int
	WorkDir           string
	LogLevel          string
	AccountsFile      string
	MaxConns          int
	MaxRequestsPerSec int
	MaxRequestsBurst  int
	Engine            EngineConfig

	Accounts []account.Provision
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers the defaults and the environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(HostKey, DefaultHost)
	v.SetDefault(PortKey, DefaultPort)
	v.SetDefault(WorkDirKey, DefaultWorkDir)
	v.SetDefault(LogLevelKey, DefaultLogLevel)
	v.SetDefault(AccountsFileKey, "")
	v.SetDefault(MaxConnsKey, 0)
	v.SetDefault(MaxRequestsPerSecKey, 0)
	v.SetDefault(MaxRequestsBurstKey, 0)
	v.SetDefault(MaxConcurrentTasksKey, 0)
	v.SetDefault(PilotLaunchDelayKey, 500*time.Millisecond)
	v.SetDefault(SandboxDirKey, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v, which must have been prepared with
// SetDefaults, and provisions the accounts.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Host:              v.GetString(HostKey),
		Port:              v.GetInt(PortKey),
		WorkDir:           v.GetString(WorkDirKey),
		LogLevel:          v.GetString(LogLevelKey),
		AccountsFile:      v.GetString(AccountsFileKey),
		MaxConns:          v.GetInt(MaxConnsKey),
		MaxRequestsPerSec: v.GetInt(MaxRequestsPerSecKey),
		MaxRequestsBurst:  v.GetInt(MaxRequestsBurstKey),
		Engine: EngineConfig{
			MaxConcurrentTasks: v.GetInt(MaxConcurrentTasksKey),
			PilotLaunchDelay:   v.GetDuration(PilotLaunchDelayKey),
			SandboxDir:         v.GetString(SandboxDirKey),
		},
	}
	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", c.Port)
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}

	if c.AccountsFile == "" {
		c.Accounts = DefaultAccounts
		return c, nil
	}
	accounts, err := LoadAccounts(c.AccountsFile)
	if err != nil {
		return nil, err
	}
	c.Accounts = accounts
	return c, nil
}

type accountsFile struct {
	Accounts []account.Provision `toml:"accounts"`
}

// LoadAccounts reads the account provisioning file at path.
func LoadAccounts(path string) ([]account.Provision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading accounts (%s): %w", path, err)
	}
	var f accountsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing accounts (%s): %w", path, err)
	}
	if len(f.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts in %s", path)
	}
	for i, a := range f.Accounts {
		if strings.TrimSpace(a.Username) == "" {
			return nil, fmt.Errorf("account[%d] in %s has no username", i, path)
		}
	}
	return f.Accounts, nil
}

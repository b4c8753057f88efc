package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/api/client/cli"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/log/hooks"
)

// A command-line client of the pilot API.
func main() {
	log.AddHook(hooks.NewContextHook())
	if err := cli.NewCLIClient(context.Background()).Exec(); err != nil {
		fmt.Fprintln(os.Stderr, "pilotcl:", err)
		os.Exit(int(errors.ExitCodeFor(err)))
	}
}

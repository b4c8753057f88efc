package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallerFromStack(t *testing.T) {
	stack := []string{
		"goroutine 1 [running]:",
		"runtime/debug.Stack(0xc00000e1e0, 0x0, 0x0)",
		"\t/usr/local/go/src/runtime/debug/stack.go:24 +0x9d",
		"github.com/sirupsen/logrus.(*Entry).log(0xc0000a8000)",
		"\t/go/pkg/mod/github.com/sirupsen/logrus@v1.4.2/entry.go:220 +0x1a0",
		"github.com/pilotapi/pilotapi/adapter.(*Adapter).SubmitPilots(0xc0000b4000)",
		"\t/src/github.com/pilotapi/pilotapi/adapter/pilots.go:42 +0x2b1",
	}
	assert.Equal(t, "adapter/pilots.go:42", callerFromStack(stack))
}

func TestCallerFromStackNoRepoFrame(t *testing.T) {
	assert.Equal(t, "", callerFromStack([]string{"main.main()", "\t/tmp/main.go:3 +0x1"}))
}

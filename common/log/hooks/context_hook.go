package hooks

import (
	"runtime/debug"
	"strings"

	log "github.com/sirupsen/logrus"
)

const repoMarker = "pilotapi/"

// contextHook stamps every entry with the file:line of the logging call site.
type contextHook struct{}

func NewContextHook() log.Hook {
	return contextHook{}
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire walks the stack past logrus' own frames and records the first caller
// location inside this repository.
func (hook contextHook) Fire(entry *log.Entry) error {
	lines := strings.Split(string(debug.Stack()), "\n")
	if loc := callerFromStack(lines); loc != "" {
		entry.Data["file:line"] = loc
	}
	return nil
}

// callerFromStack expects debug.Stack() output: function lines followed by
// tab-indented file:line lines.
func callerFromStack(lines []string) string {
	for i := 0; i+1 < len(lines); i++ {
		fn := lines[i]
		if strings.Contains(fn, "sirupsen/logrus") || strings.Contains(fn, "runtime/debug") ||
			strings.Contains(fn, "common/log/hooks") {
			continue
		}
		if !strings.Contains(fn, repoMarker) {
			continue
		}
		loc := strings.TrimSpace(lines[i+1])
		if idx := strings.LastIndex(loc, repoMarker); idx >= 0 {
			loc = loc[idx+len(repoMarker):]
		}
		// drop the " +0x1f" pc offset
		if sp := strings.Index(loc, " "); sp >= 0 {
			loc = loc[:sp]
		}
		return loc
	}
	return ""
}

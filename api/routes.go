package api

import (
	"net/http"
)

// Handler serves one API operation. The returned value becomes the result of
// the envelope.
type Handler func(api *API, c *Call) (interface{}, error)

type Route struct {
	Name     string
	Method   string
	Patterns []string
	Handler  Handler
	// Public routes are served without credentials.
	Public bool
}

// Routes is the complete API. Path parameters: sid (session), pid (pilot), tid (task).
var Routes = []Route{
	{Name: "login", Method: http.MethodPut, Patterns: []string{"/login/"}, Handler: (*API).login, Public: true},
	{Name: "logout", Method: http.MethodPut, Patterns: []string{"/logout/"}, Handler: (*API).logout},

	{Name: "sessions_create", Method: http.MethodPut, Patterns: []string{"/sessions/{sid}/"}, Handler: (*API).sessionsCreate},
	{Name: "sessions_inspect", Method: http.MethodGet, Patterns: []string{"/sessions/"}, Handler: (*API).sessionsInspect},
	{Name: "sessions_close_all", Method: http.MethodDelete, Patterns: []string{"/sessions/"}, Handler: (*API).sessionsCloseAll},
	{Name: "sessions_close", Method: http.MethodDelete, Patterns: []string{"/sessions/{sid}/"}, Handler: (*API).sessionsClose},

	{Name: "pilots_submit", Method: http.MethodPut, Patterns: []string{"/sessions/{sid}/pilots/"}, Handler: (*API).pilotsSubmit},
	{Name: "pilots_inspect", Method: http.MethodGet, Patterns: []string{
		"/sessions/{sid}/pilots/",
		"/sessions/{sid}/pilots/{pid}/",
	}, Handler: (*API).pilotsInspect},
	{Name: "pilots_wait", Method: http.MethodPost, Patterns: []string{
		"/sessions/{sid}/pilots/",
		"/sessions/{sid}/pilots/{pid}/",
	}, Handler: (*API).pilotsWait},
	{Name: "pilots_cancel", Method: http.MethodDelete, Patterns: []string{
		"/sessions/{sid}/pilots/",
		"/sessions/{sid}/pilots/{pid}",
		"/sessions/{sid}/pilots/{pid}/",
	}, Handler: (*API).pilotsCancel},

	{Name: "tasks_submit", Method: http.MethodPut, Patterns: []string{"/sessions/{sid}/tasks/"}, Handler: (*API).tasksSubmit},
	{Name: "tasks_inspect", Method: http.MethodGet, Patterns: []string{
		"/sessions/{sid}/tasks/",
		"/sessions/{sid}/tasks/{tid}/",
	}, Handler: (*API).tasksInspect},
	{Name: "tasks_stdout", Method: http.MethodGet, Patterns: []string{"/sessions/{sid}/tasks/{tid}/stdout"}, Handler: (*API).tasksStdout},
	{Name: "tasks_stderr", Method: http.MethodGet, Patterns: []string{"/sessions/{sid}/tasks/{tid}/stderr"}, Handler: (*API).tasksStderr},
	{Name: "tasks_wait", Method: http.MethodPost, Patterns: []string{
		"/sessions/{sid}/tasks/",
		"/sessions/{sid}/tasks/{tid}/",
	}, Handler: (*API).tasksWait},
}

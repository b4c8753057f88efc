package api

import (
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/orchestrator"
	"github.com/pilotapi/pilotapi/session"
)

func (api *API) login(c *Call) (interface{}, error) {
	var req LoginRequest
	if err := decodeBody(c.R, &req, true); err != nil {
		return nil, err
	}
	creds, err := api.gate.Login(req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	setCredentials(c.W, creds)
	return nil, nil
}

func (api *API) logout(c *Call) (interface{}, error) {
	return nil, api.gate.Logout(c.Creds)
}

func (api *API) sessionsCreate(c *Call) (interface{}, error) {
	sid := c.Param("sid")
	ctx := c.R.Context()
	return nil, c.Account.Create(sid, func() (*session.Session, error) {
		return session.Open(ctx, sid, api.open, c.Account.LogTags)
	})
}

func (api *API) sessionsInspect(c *Call) (interface{}, error) {
	return c.Account.SessionIDs(), nil
}

func (api *API) sessionsCloseAll(c *Call) (interface{}, error) {
	return nil, c.Account.CloseAll()
}

func (api *API) sessionsClose(c *Call) (interface{}, error) {
	return nil, c.Account.Close(c.Param("sid"))
}

func (c *Call) session() (*session.Session, error) {
	return c.Account.Session(c.Param("sid"))
}

func (api *API) pilotsSubmit(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var descs []orchestrator.PilotDescription
	if err := decodeBody(c.R, &descs, true); err != nil {
		return nil, err
	}
	return s.SubmitPilots(c.R.Context(), descs)
}

func (api *API) pilotsInspect(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var req PilotsRequest
	if err := decodeBody(c.R, &req, false); err != nil {
		return nil, err
	}
	return s.InspectPilots(pickIDs(c.Param("pid"), req.PIDs))
}

func (api *API) pilotsWait(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var req PilotsWaitRequest
	if err := decodeBody(c.R, &req, false); err != nil {
		return nil, err
	}
	return s.WaitPilots(c.R.Context(), pickIDs(c.Param("pid"), req.PIDs), req.States, req.Timeout)
}

func (api *API) pilotsCancel(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var req PilotsRequest
	if err := decodeBody(c.R, &req, false); err != nil {
		return nil, err
	}
	return s.CancelPilots(c.R.Context(), pickIDs(c.Param("pid"), req.PIDs))
}

func (api *API) tasksSubmit(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var descs []orchestrator.TaskDescription
	if err := decodeBody(c.R, &descs, true); err != nil {
		return nil, err
	}
	for i, d := range descs {
		if d.Executable == "" {
			return nil, errors.Validation(errors.BadRequest, "task %d has no executable", i)
		}
	}
	return s.SubmitTasks(c.R.Context(), descs)
}

func (api *API) tasksInspect(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var req TasksRequest
	if err := decodeBody(c.R, &req, false); err != nil {
		return nil, err
	}
	return s.InspectTasks(pickIDs(c.Param("tid"), req.TIDs))
}

func (api *API) tasksStdout(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	return s.TaskStdout(c.Param("tid"))
}

func (api *API) tasksStderr(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	return s.TaskStderr(c.Param("tid"))
}

func (api *API) tasksWait(c *Call) (interface{}, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	var req TasksWaitRequest
	if err := decodeBody(c.R, &req, false); err != nil {
		return nil, err
	}
	return s.WaitTasks(c.R.Context(), pickIDs(c.Param("tid"), req.TIDs), req.States, req.Timeout)
}

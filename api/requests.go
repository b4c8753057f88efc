package api

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/orchestrator"
)

// Largest request body accepted.
const MaxBodySize = 16 << 20

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PilotsRequest struct {
	PIDs []string `json:"pids,omitempty"`
}

type PilotsWaitRequest struct {
	PIDs    []string             `json:"pids,omitempty"`
	States  []orchestrator.State `json:"states,omitempty"`
	Timeout *float64             `json:"timeout,omitempty"`
}

type TasksRequest struct {
	TIDs []string `json:"tids,omitempty"`
}

type TasksWaitRequest struct {
	TIDs    []string             `json:"tids,omitempty"`
	States  []orchestrator.State `json:"states,omitempty"`
	Timeout *float64             `json:"timeout,omitempty"`
}

// decodeBody unmarshals the request body into v. An empty body leaves v
// untouched unless required is set.
func decodeBody(r *http.Request, v interface{}, required bool) error {
	data, err := ioutil.ReadAll(http.MaxBytesReader(nil, r.Body, MaxBodySize))
	if err != nil {
		return errors.Validation(errors.BadRequest, "reading request body: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if required {
			return errors.Validation(errors.BadRequest, "missing request body")
		}
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Validation(errors.BadRequest, "malformed request body: %v", err)
	}
	return nil
}

// pickIDs returns the id from the path when present, else the ids of the body.
func pickIDs(pathID string, bodyIDs []string) []string {
	if pathID != "" {
		return []string{pathID}
	}
	return bodyIDs
}

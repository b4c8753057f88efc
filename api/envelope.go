package api

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common/errors"
)

// Envelope wraps the outcome of every API call. Failures are reported in
// Error, never through the HTTP status.
type Envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

// Err rebuilds the error of a failed call.
func (e *Envelope) Err() error {
	if e.Success {
		return nil
	}
	return errors.Parse(e.Error)
}

func writeEnvelope(w http.ResponseWriter, result interface{}, err error) {
	env := struct {
		Success bool        `json:"success"`
		Result  interface{} `json:"result"`
		Error   string      `json:"error"`
	}{Success: err == nil}
	if err != nil {
		env.Error = err.Error()
	} else {
		env.Result = result
	}
	data, merr := json.Marshal(env)
	if merr != nil {
		log.WithError(merr).Error("Encoding response")
		data, _ = json.Marshal(struct {
			Success bool        `json:"success"`
			Result  interface{} `json:"result"`
			Error   string      `json:"error"`
		}{Error: merr.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

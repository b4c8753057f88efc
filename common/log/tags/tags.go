// Package tags holds the identifiers that are attached to log entries of
// long-lived objects (accounts, sessions, adapters) so their lines can be correlated.
package tags

import (
	log "github.com/sirupsen/logrus"
)

type LogTags struct {
	Account   string
	SessionID string
	PilotID   string
	TaskID    string
}

// Fields returns the non-empty tags as logrus fields.
func (t LogTags) Fields() log.Fields {
	f := log.Fields{}
	if t.Account != "" {
		f["account"] = t.Account
	}
	if t.SessionID != "" {
		f["sessionID"] = t.SessionID
	}
	if t.PilotID != "" {
		f["pilotID"] = t.PilotID
	}
	if t.TaskID != "" {
		f["taskID"] = t.TaskID
	}
	return f
}

func (t LogTags) Entry() *log.Entry {
	return log.WithFields(t.Fields())
}

// Package api serves the pilot API over HTTP. Every operation is listed in
// Routes; responses are JSON envelopes.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/account"
	"github.com/pilotapi/pilotapi/auth"
	"github.com/pilotapi/pilotapi/common/endpoints"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/session"
)

// Cookie names of the credentials.
const (
	IdentityCookie = "username"
	SecretCookie   = "secret"
)

type API struct {
	gate *auth.Gate
	open session.AdapterFactory
	stat stats.StatsReceiver
}

func NewAPI(gate *auth.Gate, open session.AdapterFactory, stat stats.StatsReceiver) *API {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &API{gate: gate, open: open, stat: stat}
}

// Call is the state of one request passed to a Handler.
type Call struct {
	W       http.ResponseWriter
	R       *http.Request
	Account *account.Account
	Creds   auth.Credentials
}

func (c *Call) Param(name string) string {
	return chi.URLParam(c.R, name)
}

// Router returns a router serving Routes and the admin endpoints.
func (api *API) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	endpoints.NewAdminHandlers(api.stat).Mount(r)
	r.Group(func(r chi.Router) {
		r.Use(middlewares...)
		for _, route := range Routes {
			h := api.handle(route)
			for _, pattern := range route.Patterns {
				r.Method(route.Method, pattern, h)
			}
		}
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, errors.NotFound(errors.BadRequest, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, errors.Validation(errors.BadRequest, "method %s not allowed on %s", r.Method, r.URL.Path))
	})
	return r
}

func (api *API) handle(route Route) http.Handler {
	stat := api.stat.Scope(route.Name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer stat.Latency(stats.APIRequestLatency_ms).Time().Stop()
		stat.Counter(stats.APIRequestCounter).Inc(1)
		start := time.Now()

		c := &Call{W: w, R: r, Creds: credentials(r)}
		var (
			result interface{}
			err    error
		)
		if !route.Public {
			c.Account, err = api.gate.Authenticate(c.Creds)
		}
		if err == nil {
			result, err = route.Handler(api, c)
		}

		entry := log.WithFields(log.Fields{
			"route":   route.Name,
			"path":    r.URL.Path,
			"elapsed": time.Since(start),
		})
		if c.Account != nil {
			entry = entry.WithField("account", c.Account.Identity)
		}
		if err != nil {
			stat.Counter(stats.APIErrorCounter).Inc(1)
			entry.WithError(err).Info("Request failed")
		} else {
			entry.Debug("Request served")
		}
		writeEnvelope(w, result, err)
	})
}

func credentials(r *http.Request) auth.Credentials {
	var creds auth.Credentials
	if c, err := r.Cookie(IdentityCookie); err == nil {
		creds.Identity = c.Value
	}
	if c, err := r.Cookie(SecretCookie); err == nil {
		creds.Signed = c.Value
	}
	return creds
}

func setCredentials(w http.ResponseWriter, creds auth.Credentials) {
	for name, value := range map[string]string{IdentityCookie: creds.Identity, SecretCookie: creds.Signed} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: value, Path: "/", HttpOnly: true})
	}
}

// Package endpoints serves the unauthenticated admin paths next to the API:
// a liveness probe and a finagle style metrics dump.
package endpoints

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/pilotapi/pilotapi/common/stats"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/admin/metrics.json"
)

type AdminHandlers struct {
	Stats stats.StatsReceiver
}

func NewAdminHandlers(stat stats.StatsReceiver) *AdminHandlers {
	return &AdminHandlers{Stats: stat}
}

// Mount registers the admin paths on the given router.
func (a *AdminHandlers) Mount(r chi.Router) {
	r.Get(HealthPath, healthHandler)
	r.Get(MetricsPath, a.statsHandler)
	log.Infof("Serving admin paths %s and %s", HealthPath, MetricsPath)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (a *AdminHandlers) statsHandler(w http.ResponseWriter, r *http.Request) {
	const contentTypeHdr = "Content-Type"
	const contentTypeVal = "application/json; charset=utf-8"
	w.Header().Set(contentTypeHdr, contentTypeVal)

	pretty := r.URL.Query().Get("pretty") == "true"
	str := a.Stats.Render(pretty)
	if _, err := io.Copy(w, bytes.NewBuffer(str)); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
}

package endpoints_test

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotapi/pilotapi/common/endpoints"
	"github.com/pilotapi/pilotapi/common/stats"
)

func get(t *testing.T, url string) (*http.Response, []byte) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestAdminPaths(t *testing.T) {
	stat := stats.DefaultStatsReceiver()
	stat.Scope("api", "login").Counter(stats.APIRequestCounter).Inc(2)

	r := chi.NewRouter()
	endpoints.NewAdminHandlers(stat).Mount(r)
	server := httptest.NewServer(r)
	defer server.Close()

	_, body := get(t, server.URL+endpoints.HealthPath)
	assert.Equal(t, "ok", string(body))

	resp, body := get(t, server.URL+endpoints.MetricsPath+"?pretty=true")
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 2.0, got["api/login/"+stats.APIRequestCounter])
}

package api

import (
	"context"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/pilotapi/pilotapi/account"
	"github.com/pilotapi/pilotapi/auth"
	"github.com/pilotapi/pilotapi/common/errors"
	"github.com/pilotapi/pilotapi/common/stats"
	"github.com/pilotapi/pilotapi/session"
)

// ServerConfig holds the listener settings of the API server.
// Zero value integer fields are interpreted as unlimited.
type ServerConfig struct {
	Addr             string // Required: host:port the listener binds to
	ListenerMaxConns int    // Maximum simultaneous connections the listener accepts
	RateLimitPerSec  int    // Maximum incoming requests per second
	BurstLimit       int    // Maximum burst of requests above RateLimitPerSec
}

// NewListener creates a net.Listener with the configured address and limits.
func (c *ServerConfig) NewListener() (net.Listener, error) {
	listener, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, err
	}
	if c.ListenerMaxConns > 0 {
		log.Infof("Creating LimitListener with max: %d", c.ListenerMaxConns)
		return netutil.LimitListener(listener, c.ListenerMaxConns), nil
	}
	return listener, nil
}

// Limiter delays requests beyond a rate per second. Requests whose context
// ends while waiting fail with a Throttled error.
type Limiter struct {
	limiter *rate.Limiter
	stat    stats.StatsReceiver
}

func NewLimiter(maxRequests, maxBurst int, stat stats.StatsReceiver) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(maxRequests), maxBurst),
		stat:    stat,
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.limiter.Wait(r.Context()); err != nil {
			l.stat.Counter(stats.APIThrottledCounter).Inc(1)
			log.Warnf("Limiter dropped request due to rate limit: %s. Incoming request: %s %s", err, r.Method, r.URL.Path)
			writeEnvelope(w, nil, errors.NotReady(errors.Throttled, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type Server struct {
	cfg      ServerConfig
	registry account.Registry
	stat     stats.StatsReceiver
	http     *http.Server
}

// NewServer serves the API for the accounts of registry. Sessions get their
// adapters from open.
func NewServer(cfg ServerConfig, registry account.Registry, open session.AdapterFactory, stat stats.StatsReceiver) *Server {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	apiStat := stat.Scope("api")
	api := NewAPI(auth.NewGate(registry, stat.Scope("auth")), open, apiStat)

	var middlewares []func(http.Handler) http.Handler
	// 0 would reject every request, which is not useful, so 0 means unlimited.
	if cfg.RateLimitPerSec > 0 && cfg.BurstLimit > 0 {
		log.Infof("Creating Limiter with rate/burst: %d/%d", cfg.RateLimitPerSec, cfg.BurstLimit)
		middlewares = append(middlewares, NewLimiter(cfg.RateLimitPerSec, cfg.BurstLimit, apiStat).Middleware)
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		stat:     stat,
		http:     &http.Server{Handler: api.Router(middlewares...)},
	}
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	l, err := s.cfg.NewListener()
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Terminate. It returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Serve(l net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go stats.StartUptimeReporting(s.stat, stats.APIServerUptime_ms, stop)
	log.Infof("Serving pilot API on %s", l.Addr())
	return s.http.Serve(l)
}

// Terminate stops accepting requests, waits up to ctx for running ones and
// closes every session of every account. Close errors are logged, not returned.
func (s *Server) Terminate(ctx context.Context) error {
	start := time.Now()
	err := s.http.Shutdown(ctx)
	if err != nil {
		log.WithError(err).Warn("Shutting down HTTP server")
		s.http.Close()
	}
	if serr := s.registry.Shutdown(); serr != nil {
		log.WithError(serr).Error("Closing sessions at shutdown")
	}
	log.Infof("Pilot API terminated in %v", time.Since(start))
	return err
}

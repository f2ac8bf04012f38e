// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/Hexer10/SourceServer/internal/config"
	"github.com/Hexer10/SourceServer/internal/geoip"
	"github.com/Hexer10/SourceServer/internal/storage"
)

// New creates a new Server instance with the provided storage, GeoIP provider, and configuration.
func New(store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Server {
	gameMap := make(map[uint64]struct{})
	for _, game := range cfg.Server.AllowedGames {
		gameMap[xxhash.Sum64String(game)] = struct{}{}
	}

	return &Server{
		storage:        store,
		geoip:          geo,
		allowedGames:   gameMap,
		authToken:      cfg.Server.AuthToken,
		queryTimeout:   cfg.Query.Timeout,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		softLimitDur:   cfg.RateLimit.SoftLimitDur,

		queue:    make(chan queryJob, 1000),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool that persists
// query results and the cache cleanup routine.
func (s *Server) StartWorkers() {
	workers := 10
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	// Clean soft-limit cache
	go s.gcSoftLimitCache()
}

// StopWorkers gracefully stops the background workers and closes the job queue.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	close(s.queue)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/query/info", s.RateLimitMiddleware(http.HandlerFunc(s.handleQueryInfo)))
	mux.Handle("GET /api/query/players", s.RateLimitMiddleware(http.HandlerFunc(s.handleQueryPlayers)))
	mux.Handle("GET /api/query/rules", s.RateLimitMiddleware(http.HandlerFunc(s.handleQueryRules)))

	mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleServers)))
	mux.Handle("GET /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleGetServer)))
	mux.Handle("GET /api/server/rules", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleGetServerRules)))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))

	mux.Handle("GET /api/version", http.HandlerFunc(handleVersion))

	return s.LoggingMiddleware(mux)
}

// gcSoftLimitCache periodically cleans up expired entries from the soft rate-limit cache.
func (s *Server) gcSoftLimitCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.seenCache.Range(func(key, value interface{}) bool {
				if t, ok := value.(time.Time); ok {
					if now.Sub(t) > s.softLimitDur {
						s.seenCache.Delete(key)
					}
				} else {
					s.seenCache.Delete(key)
				}
				return true
			})
		}
	}
}

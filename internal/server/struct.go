package server

import (
	"sync"
	"time"

	"github.com/Hexer10/SourceServer/internal/geoip"
	"github.com/Hexer10/SourceServer/internal/storage"
	"github.com/Hexer10/SourceServer/pkg/a2s"
)

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background persistence of query results.
type Server struct {
	// storage provides access to the persistent database layer for
	// reading and writing tracked server data.
	storage *storage.Repository

	// geoip provides functionality for resolving IP addresses to country codes.
	// It can be nil if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// allowedGames is a set of hashed game folder names (using xxhash)
	// whose servers may be persisted. Empty means no restriction.
	allowedGames map[uint64]struct{}

	// queue is a buffered channel used to pass successful query results
	// from HTTP handlers to background workers for persistence.
	queue chan queryJob

	// shutdown broadcasts a stop signal to the background routines
	// during a graceful shutdown.
	shutdown chan struct{}

	// seenCache tracks recently persisted servers to implement the soft
	// limit that suppresses hot re-writes of the same server.
	seenCache sync.Map

	// authToken is the secret token required to access administrative
	// API endpoints.
	authToken string

	// queryTimeout bounds each live A2S query issued by the handlers.
	queryTimeout time.Duration

	// wg waits for the background workers during shutdown.
	wg sync.WaitGroup

	// hardLimitCount is the maximum number of requests allowed per IP
	// address within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// softLimitDur is the duration for which a repeat query of the same
	// server is not persisted again.
	softLimitDur time.Duration

	// trustProxy indicates whether headers like X-Forwarded-For are
	// trusted when determining the client's real IP address.
	trustProxy bool
}

// queryJob is one successful live query to persist in the background.
// Info is set for info queries; Rules for rules queries. The IP is the
// resolved address the query actually went to.
type queryJob struct {
	IP    string
	Port  int
	Info  *a2s.ServerInfo
	Rules map[string]string
}

package server

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/Hexer10/SourceServer/internal/models"
)

// enqueue hands a successful query result to the background workers.
// The soft limit suppresses re-persisting a server queried again within
// softLimitDur; a full queue drops the job rather than blocking the
// request handler.
func (s *Server) enqueue(job queryJob) {
	if job.IP == "" {
		return
	}

	softKey := fmt.Sprintf("%s:%d", job.IP, job.Port)
	if job.Info != nil {
		if val, ok := s.seenCache.Load(softKey); ok {
			if lastSeen, ok := val.(time.Time); ok && time.Since(lastSeen) < s.softLimitDur {
				log.Trace().
					Str("ip", job.IP).
					Int("port", job.Port).
					Msg("Persist skipped by soft limit")
				return
			}
		}
		s.seenCache.Store(softKey, time.Now())
	}

	select {
	case s.queue <- job:
	default:
		log.Warn().
			Str("ip", job.IP).
			Int("port", job.Port).
			Msg("Queue full, query result dropped")
	}
}

// worker is a background goroutine that persists queued query results.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.processJob(job)
	}
}

// processJob persists one query result: info results upsert the server
// row (with a GeoIP country lookup), rules results replace the rules
// snapshot of an already-tracked server.
func (s *Server) processJob(job queryJob) {
	logCtx := log.With().
		Str("ip", job.IP).
		Int("port", job.Port).
		Logger()

	if job.Rules != nil {
		// Rules are only kept for servers already tracked via an info query.
		existing, err := s.storage.GetServer(job.IP, job.Port)
		if err != nil || existing == nil {
			logCtx.Trace().Msg("Rules for untracked server, skipping")
			return
		}

		if err := s.storage.ReplaceRules(job.IP, job.Port, job.Rules); err != nil {
			logCtx.Error().Err(err).Msg("Failed to save server rules")
			return
		}

		logCtx.Debug().Msg("Server rules saved")
		return
	}

	if job.Info == nil {
		return
	}

	if !s.gameAllowed(job.Info.Folder) {
		logCtx.Debug().Str("folder", job.Info.Folder).Msg("Game not in whitelist, skipping")
		return
	}

	var country string
	if s.geoip != nil {
		country = s.geoip.GetCountryCode(job.IP)
	}

	now := time.Now()
	server := models.Server{
		IP:          job.IP,
		Port:        job.Port,
		CountryCode: country,
		Name:        job.Info.Name,
		Map:         job.Info.Map,
		Folder:      job.Info.Folder,
		Game:        job.Info.Game,
		Version:     job.Info.Version,
		ServerType:  job.Info.ServerType.String(),
		ServerOS:    job.Info.Environment.String(),
		Keywords:    job.Info.Keywords,
		Players:     job.Info.Players,
		MaxPlayers:  job.Info.MaxPlayers,
		Bots:        job.Info.Bots,
		Up:          true,
		FirstSeen:   now,
		LastSeen:    now,
	}

	if err := s.storage.UpsertServer(server); err != nil {
		logCtx.Error().Err(err).Msg("Failed to save server")
		return
	}

	logCtx.Debug().Msg("Server saved")
}

// gameAllowed checks the game folder name against the hashed whitelist.
// An empty whitelist allows everything.
func (s *Server) gameAllowed(folder string) bool {
	if len(s.allowedGames) == 0 {
		return true
	}

	_, ok := s.allowedGames[xxhash.Sum64String(folder)]
	return ok
}

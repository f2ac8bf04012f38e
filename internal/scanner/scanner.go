// Package scanner provides the bulk maintenance tasks over the tracked server set.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Hexer10/SourceServer/internal/config"
	"github.com/Hexer10/SourceServer/internal/models"
	"github.com/Hexer10/SourceServer/internal/storage"
	"github.com/Hexer10/SourceServer/pkg/a2s"
)

// Run checks if any maintenance flags are set and executes the corresponding task.
// Returns true if a task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	if cfg.Storage.PruneStale != 0 {
		cutoff := time.Now().Add(-cfg.Storage.PruneStale)
		log.Info().Time("cutoff", cutoff).Msg("Pruning stale servers...")

		count, err := store.DeleteStale(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	var (
		servers  []models.Server
		err      error
		taskName string
		onlyDown bool
	)

	switch {
	case cfg.Storage.CheckDown:
		taskName = "Check Down"
		onlyDown = true
		log.Info().Msg("Fetching down servers for re-check...")
		servers, err = store.GetServersSubset(true, "")
	case cfg.Storage.CheckAll:
		taskName = "Check All"
		log.Info().Msg("Fetching all servers for re-check...")
		servers, err = store.GetServersSubset(false, "")
	default:
		// No flags set
		return false
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		return true
	}

	if len(servers) == 0 {
		log.Info().Msg("No servers found for maintenance")
		return true
	}

	log.Info().Int("count", len(servers)).Msgf("Starting '%s' task with 10 workers...", taskName)
	runWorkerPool(servers, store, cfg.Query, onlyDown)
	log.Info().Msg("Maintenance task completed")

	return true
}

func runWorkerPool(servers []models.Server, store *storage.Repository, opts config.Query, deleteDown bool) {
	const workers = 10
	jobs := make(chan models.Server, len(servers))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for server := range jobs {
				checkServer(server, store, opts, deleteDown)
			}
		}()
	}

	for _, s := range servers {
		jobs <- s
	}
	close(jobs)

	wg.Wait()
}

// checkServer re-queries one tracked server. A reachable server is
// updated in place (info plus a fresh rules snapshot); an unreachable
// one is deleted when deleteDown is set and marked down otherwise.
func checkServer(server models.Server, store *storage.Repository, opts config.Query, deleteDown bool) {
	logCtx := log.With().
		Str("ip", server.IP).
		Int("port", server.Port).
		Logger()

	if server.Port <= 0 || server.Port > 65535 {
		logCtx.Debug().Msg("Invalid port, deleting server")
		if err := store.DeleteServer(server.IP, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete invalid server")
		}
		return
	}

	info, rules, err := query(server.IP, server.Port, opts)
	if err != nil {
		if deleteDown {
			logCtx.Debug().Err(err).Msg("Server still unreachable, deleting")
			if err := store.DeleteServer(server.IP, server.Port); err != nil {
				logCtx.Error().Err(err).Msg("Failed to delete unreachable server")
			}
			return
		}

		logCtx.Debug().Err(err).Msg("Server unreachable, marking down")
		if err := store.MarkDown(server.IP, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to mark server down")
		}
		return
	}

	server.Name = info.Name
	server.Map = info.Map
	server.Folder = info.Folder
	server.Game = info.Game
	server.Version = info.Version
	server.ServerType = info.ServerType.String()
	server.ServerOS = info.Environment.String()
	server.Keywords = info.Keywords
	server.Players = info.Players
	server.MaxPlayers = info.MaxPlayers
	server.Bots = info.Bots
	server.LastSeen = time.Now()

	if err := store.UpsertServer(server); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update server")
		return
	}

	if rules != nil {
		if err := store.ReplaceRules(server.IP, server.Port, rules); err != nil {
			logCtx.Error().Err(err).Msg("Failed to update server rules")
		}
	}

	logCtx.Trace().Msg("Server updated successfully")
}

// query fetches info and rules from one server over a short-lived
// connection. A rules failure is not fatal: some servers answer info
// only.
func query(ip string, port int, opts config.Query) (*a2s.ServerInfo, map[string]string, error) {
	client, err := a2s.New(ip, port)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	info, err := client.GetInfo(ctx)
	if err != nil {
		return nil, nil, err
	}

	rules, err := client.GetRules(ctx)
	if err != nil {
		rules = nil
	}

	return info, rules, nil
}

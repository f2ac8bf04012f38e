package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Hexer10/SourceServer/internal/models"
	"github.com/Hexer10/SourceServer/internal/vars"
	"github.com/Hexer10/SourceServer/pkg/a2s"
)

// queryTarget parses the host/port query parameters shared by the live
// query handlers. It writes the error response itself and returns ok=false.
func queryTarget(w http.ResponseWriter, r *http.Request) (host string, port int, ok bool) {
	host = r.URL.Query().Get("host")
	portStr := r.URL.Query().Get("port")

	if host == "" || portStr == "" {
		http.Error(w, "Missing host or port", http.StatusBadRequest)
		return "", 0, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return "", 0, false
	}

	return host, port, true
}

// dialTarget opens a short-lived query client for one request.
func (s *Server) dialTarget(w http.ResponseWriter, host string, port int) (*a2s.Client, context.Context, context.CancelFunc, bool) {
	client, err := a2s.New(host, port)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err)
		return nil, nil, nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	return client, ctx, cancel, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// resolvedIP extracts the IP the client actually dialed.
func resolvedIP(client *a2s.Client) string {
	if addr, ok := client.RemoteAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}

// handleQueryInfo performs a live A2S_INFO query.
// Query params: ?host=game.example.org&port=27015
func (s *Server) handleQueryInfo(w http.ResponseWriter, r *http.Request) {
	host, port, ok := queryTarget(w, r)
	if !ok {
		return
	}

	client, ctx, cancel, ok := s.dialTarget(w, host, port)
	if !ok {
		return
	}
	defer func() { _ = client.Close() }()
	defer cancel()

	info, err := client.GetInfo(ctx)
	if err != nil {
		writeJSONError(w, http.StatusGatewayTimeout, err)
		return
	}

	s.enqueue(queryJob{IP: resolvedIP(client), Port: port, Info: info})
	writeJSON(w, info)
}

// handleQueryPlayers performs a live A2S_PLAYER query.
func (s *Server) handleQueryPlayers(w http.ResponseWriter, r *http.Request) {
	host, port, ok := queryTarget(w, r)
	if !ok {
		return
	}

	client, ctx, cancel, ok := s.dialTarget(w, host, port)
	if !ok {
		return
	}
	defer func() { _ = client.Close() }()
	defer cancel()

	players, err := client.GetPlayers(ctx)
	if err != nil {
		writeJSONError(w, http.StatusGatewayTimeout, err)
		return
	}

	writeJSON(w, players)
}

// handleQueryRules performs a live A2S_RULES query.
func (s *Server) handleQueryRules(w http.ResponseWriter, r *http.Request) {
	host, port, ok := queryTarget(w, r)
	if !ok {
		return
	}

	client, ctx, cancel, ok := s.dialTarget(w, host, port)
	if !ok {
		return
	}
	defer func() { _ = client.Close() }()
	defer cancel()

	rules, err := client.GetRules(ctx)
	if err != nil {
		writeJSONError(w, http.StatusGatewayTimeout, err)
		return
	}

	s.enqueue(queryJob{IP: resolvedIP(client), Port: port, Rules: rules})
	writeJSON(w, rules)
}

// handleServers returns a JSON list of all tracked servers.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	writeJSON(w, servers)
}

// handleGetServer returns details for a specific tracked server.
// Query params: ?ip=1.2.3.4&port=27015
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := serverKey(w, r)
	if !ok {
		return
	}

	server, err := s.storage.GetServer(ip, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if server == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, server)
}

// handleGetServerRules returns the stored rules snapshot of a tracked server.
func (s *Server) handleGetServerRules(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := serverKey(w, r)
	if !ok {
		return
	}

	rules, err := s.storage.GetRules(ip, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server rules")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, rules)
}

// handleDeleteServer removes a tracked server from the database.
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	ip, port, ok := serverKey(w, r)
	if !ok {
		return
	}

	if err := s.storage.DeleteServer(ip, port); err != nil {
		log.Error().Err(err).
			Str("ip", ip).
			Int("port", port).
			Msg("Failed to delete server")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("ip", ip).
		Int("port", port).
		Msg("Server deleted manually")

	writeJSON(w, map[string]string{"status": "ok", "message": "Server deleted"})
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, vars.Info())
}

// serverKey parses the ip/port parameters of the tracked-server endpoints.
func serverKey(w http.ResponseWriter, r *http.Request) (ip string, port int, ok bool) {
	ip = r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing required params (ip, port)", http.StatusBadRequest)
		return "", 0, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return "", 0, false
	}

	return ip, port, true
}

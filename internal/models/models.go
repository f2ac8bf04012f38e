// Package models defines the records shared by the storage layer and the HTTP API.
package models

import "time"

// Server is a tracked game server: the last decoded A2S info for one
// (ip, port) pair plus bookkeeping about when and how often it was queried.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IP          string    `json:"ip"`
	CountryCode string    `json:"country_code"`
	Name        string    `json:"name"`
	Map         string    `json:"map"`
	Folder      string    `json:"folder"`
	Game        string    `json:"game"`
	Version     string    `json:"version"`
	ServerType  string    `json:"server_type"`
	ServerOS    string    `json:"server_os"`
	Keywords    string    `json:"keywords,omitempty"`
	Port        int       `json:"port"`
	CheckCount  int64     `json:"check_count"`
	Players     uint8     `json:"players"`
	MaxPlayers  uint8     `json:"max_players"`
	Bots        uint8     `json:"bots"`
	Up          bool      `json:"up"`
}

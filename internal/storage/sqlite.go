// Package storage handles database connections, schema migrations, and data operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Driver sqlite

	"github.com/Hexer10/SourceServer/internal/models"
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

const serverColumns = `ip, port, country_code, name, map, folder, game, version,
       server_type, server_os, keywords, players, max_players, bots,
       up, check_count, first_seen, last_seen`

// UpsertServer inserts a new server or updates an existing one on the
// (ip, port) constraint, bumping check_count and marking it up. The
// country code is kept when the new value is blank.
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (` + serverColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 1, ?, ?)
	ON CONFLICT(ip, port) DO UPDATE SET
		check_count = check_count + 1,
		last_seen   = excluded.last_seen,
		up          = 1,
		name        = excluded.name,
		map         = excluded.map,
		folder      = excluded.folder,
		game        = excluded.game,
		version     = excluded.version,
		server_type = excluded.server_type,
		server_os   = excluded.server_os,
		keywords    = excluded.keywords,
		players     = excluded.players,
		max_players = excluded.max_players,
		bots        = excluded.bots,

		-- Keep the known country if the new lookup came back blank
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END;
	`

	_, err := r.db.Exec(query,
		s.IP, s.Port, s.CountryCode, s.Name, s.Map, s.Folder, s.Game, s.Version,
		s.ServerType, s.ServerOS, s.Keywords, s.Players, s.MaxPlayers, s.Bots,
		s.FirstSeen, s.LastSeen,
	)

	return err
}

// MarkDown flags a server as unreachable without touching its last
// good query data.
func (r *Repository) MarkDown(ip string, port int) error {
	_, err := r.db.Exec(
		`UPDATE servers SET up = 0, check_count = check_count + 1 WHERE ip = ? AND port = ?`,
		ip, port,
	)
	return err
}

func scanServer(row interface{ Scan(...any) error }, s *models.Server) error {
	return row.Scan(
		&s.IP, &s.Port, &s.CountryCode, &s.Name, &s.Map, &s.Folder, &s.Game, &s.Version,
		&s.ServerType, &s.ServerOS, &s.Keywords, &s.Players, &s.MaxPlayers, &s.Bots,
		&s.Up, &s.CheckCount, &s.FirstSeen, &s.LastSeen,
	)
}

func (r *Repository) queryServers(query string, args ...any) ([]models.Server, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := scanServer(rows, &s); err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServers retrieves all tracked servers, most recently seen first.
func (r *Repository) GetServers() ([]models.Server, error) {
	return r.queryServers(`SELECT ` + serverColumns + ` FROM servers ORDER BY last_seen DESC`)
}

// GetServer retrieves a specific server by its (ip, port) identifier.
func (r *Repository) GetServer(ip string, port int) (*models.Server, error) {
	row := r.db.QueryRow(
		`SELECT `+serverColumns+` FROM servers WHERE ip = ? AND port = ?`,
		ip, port,
	)

	var s models.Server
	err := scanServer(row, &s)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetServersSubset retrieves servers for maintenance.
// If onlyDown is true, it returns only servers last seen unreachable.
// If game is provided, it filters by game folder name.
func (r *Repository) GetServersSubset(onlyDown bool, game string) ([]models.Server, error) {
	query := `SELECT ` + serverColumns + ` FROM servers WHERE 1=1`
	var args []any

	if onlyDown {
		query += ` AND up = 0`
	}
	if game != "" {
		query += ` AND folder = ?`
		args = append(args, game)
	}

	return r.queryServers(query, args...)
}

// DeleteServer removes a specific server and, via the cascade, its rules.
func (r *Repository) DeleteServer(ip string, port int) error {
	_, err := r.db.Exec(`DELETE FROM servers WHERE ip = ? AND port = ?`, ip, port)
	return err
}

// DeleteStale removes servers whose last_seen is before the cutoff.
func (r *Repository) DeleteStale(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReplaceRules swaps the stored rules snapshot of a server for a new one.
func (r *Repository) ReplaceRules(ip string, port int, rules map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM server_rules WHERE ip = ? AND port = ?`, ip, port); err != nil {
		_ = tx.Rollback()
		return err
	}

	for name, value := range rules {
		if _, err := tx.Exec(
			`INSERT INTO server_rules (ip, port, name, value) VALUES (?, ?, ?, ?)`,
			ip, port, name, value,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetRules returns the stored rules snapshot of a server.
func (r *Repository) GetRules(ip string, port int) (map[string]string, error) {
	rows, err := r.db.Query(`SELECT name, value FROM server_rules WHERE ip = ? AND port = ?`, ip, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	rules := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			continue
		}
		rules[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// Package store persists per-session UI preferences in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Sternrassler/pokedex/pkg/logging"
)

// ErrInvalidSession is returned for session ids that are not UUIDs.
var ErrInvalidSession = errors.New("invalid session id")

// Preferences are the UI settings of one visitor session.
type Preferences struct {
	SessionID   string    `json:"session_id"`
	DarkMode    bool      `json:"dark_mode"`
	GridView    bool      `json:"grid_view"`
	TypeFilters []string  `json:"type_filters"`
	SearchTerm  string    `json:"search_term"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings of a new session: dark mode and
// grid view on, no filters.
func DefaultPreferences(sessionID string) Preferences {
	return Preferences{
		SessionID:   sessionID,
		DarkMode:    true,
		GridView:    true,
		TypeFilters: []string{},
	}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id is a well-formed session id.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is a SQLite-backed preferences store.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.NewLogger("store"),
		now:    time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().Str("path", path).Msg("Preferences store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
			session_id TEXT PRIMARY KEY,
			dark_mode INTEGER NOT NULL DEFAULT 1,
			grid_view INTEGER NOT NULL DEFAULT 1,
			type_filters TEXT NOT NULL DEFAULT '[]',
			search_term TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_preferences_updated_at ON preferences(updated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get returns the preferences of a session, or the defaults when none are
// stored.
func (s *Store) Get(ctx context.Context, sessionID string) (Preferences, error) {
	if !ValidSessionID(sessionID) {
		return Preferences{}, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}

	var (
		p         = Preferences{SessionID: sessionID}
		filters   string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT dark_mode, grid_view, type_filters, search_term, updated_at
		 FROM preferences WHERE session_id = ?`, sessionID,
	).Scan(&p.DarkMode, &p.GridView, &filters, &p.SearchTerm, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPreferences(sessionID), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}

	if err := json.Unmarshal([]byte(filters), &p.TypeFilters); err != nil {
		return Preferences{}, fmt.Errorf("decode type filters: %w", err)
	}
	if p.TypeFilters == nil {
		p.TypeFilters = []string{}
	}
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return p, nil
}

// Put upserts the preferences of p.SessionID and returns them as stored.
func (s *Store) Put(ctx context.Context, p Preferences) (Preferences, error) {
	if !ValidSessionID(p.SessionID) {
		return Preferences{}, fmt.Errorf("%w: %q", ErrInvalidSession, p.SessionID)
	}
	if p.TypeFilters == nil {
		p.TypeFilters = []string{}
	}

	filters, err := json.Marshal(p.TypeFilters)
	if err != nil {
		return Preferences{}, fmt.Errorf("encode type filters: %w", err)
	}
	p.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences (session_id, dark_mode, grid_view, type_filters, search_term, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			dark_mode = excluded.dark_mode,
			grid_view = excluded.grid_view,
			type_filters = excluded.type_filters,
			search_term = excluded.search_term,
			updated_at = excluded.updated_at`,
		p.SessionID, p.DarkMode, p.GridView, string(filters), p.SearchTerm, p.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return Preferences{}, fmt.Errorf("put preferences: %w", err)
	}

	s.logger.Debug().Str("session", p.SessionID).Msg("Preferences saved")
	return p, nil
}

// Delete removes the preferences of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

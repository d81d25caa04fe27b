// Package analytics records privacy-conscious visitor metrics: hashed IPs,
// no cookies, Do-Not-Track honored upstream, automatic retention cleanup.
package analytics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Visit is one recorded page view.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Locale    string    `json:"locale,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PreferenceKind is what a visitor switched.
type PreferenceKind string

const (
	PreferenceLocale PreferenceKind = "locale"
	PreferenceTheme  PreferenceKind = "theme"
)

// PreferenceEvent is one locale or theme switch. It carries no visitor id.
type PreferenceEvent struct {
	Kind      PreferenceKind `json:"kind"`
	Value     string         `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
}

// Count is a value and how often it occurred.
type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalVisits      int64   `json:"total_visits"`
	UniqueVisitors   int64   `json:"unique_visitors"`
	VisitsToday      int64   `json:"visits_today"`
	VisitsThisWeek   int64   `json:"visits_this_week"`
	PreferenceEvents int64   `json:"preference_events"`
	Locales          []Count `json:"locales"`
	Themes           []Count `json:"themes"`
	RecentVisits     []Visit `json:"recent_visits"`
}

const recentLimit = 50

// Store persists visits in SQLite.
type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return newStore(db)
}

// OpenMemory creates an in-memory database (useful for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "opening in-memory database")
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	salt, err := newSalt()
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, salt: salt, now: time.Now}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "running migrations")
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL DEFAULT '',
	locale TEXT NOT NULL DEFAULT '',
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visits_ts ON visits(ts);

CREATE TABLE IF NOT EXISTS preference_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL CHECK(kind IN ('locale','theme')),
	value TEXT NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_preference_events_ts ON preference_events(ts);
`

func newSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating salt")
	}
	return hex.EncodeToString(b), nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SetClock replaces the time source used for timestamps and stats windows.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// HashIP hashes an address with the per-process salt. The same address hashes
// the same way until restart.
func (s *Store) HashIP(ip string) string {
	h := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(h[:])[:16]
}

// RecordVisit stores a visit. v.HashedIP must already be hashed.
func (s *Store) RecordVisit(ctx context.Context, v Visit) error {
	ts := v.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visits (hashed_ip, user_agent, path, locale, ts) VALUES (?, ?, ?, ?, ?)`,
		v.HashedIP, v.UserAgent, v.Path, v.Locale, ts.Unix())
	return errors.Wrap(err, "recording visit")
}

// RecordPreference stores a locale or theme switch.
func (s *Store) RecordPreference(ctx context.Context, e PreferenceEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preference_events (kind, value, ts) VALUES (?, ?, ?)`,
		string(e.Kind), e.Value, ts.Unix())
	return errors.Wrap(err, "recording preference")
}

// Stats summarizes the stored data.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{Locales: []Count{}, Themes: []Count{}, RecentVisits: []Visit{}}
	counters := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisits, `SELECT COUNT(*) FROM visits`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visits`, nil},
		{&stats.VisitsToday, `SELECT COUNT(*) FROM visits WHERE ts >= ?`, []any{midnight.Unix()}},
		{&stats.VisitsThisWeek, `SELECT COUNT(*) FROM visits WHERE ts >= ?`, []any{weekAgo.Unix()}},
		{&stats.PreferenceEvents, `SELECT COUNT(*) FROM preference_events`, nil},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, errors.Wrap(err, "counting visits")
		}
	}

	var err error
	if stats.Locales, err = s.counts(ctx, PreferenceLocale); err != nil {
		return nil, err
	}
	if stats.Themes, err = s.counts(ctx, PreferenceTheme); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, locale, ts
		FROM visits
		ORDER BY ts DESC, id DESC
		LIMIT ?`, recentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "listing recent visits")
	}
	defer rows.Close()
	for rows.Next() {
		var v Visit
		var ts int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Locale, &ts); err != nil {
			return nil, errors.Wrap(err, "scanning visit")
		}
		v.Timestamp = time.Unix(ts, 0).In(now.Location())
		stats.RecentVisits = append(stats.RecentVisits, v)
	}
	return stats, errors.Wrap(rows.Err(), "listing recent visits")
}

func (s *Store) counts(ctx context.Context, kind PreferenceKind) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value, COUNT(*) AS n
		FROM preference_events
		WHERE kind = ?
		GROUP BY value
		ORDER BY n DESC, value ASC`, string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "counting %s events", kind)
	}
	defer rows.Close()
	out := []Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, errors.Wrap(err, "scanning count")
		}
		out = append(out, c)
	}
	return out, errors.Wrapf(rows.Err(), "counting %s events", kind)
}

// Cleanup deletes records older than retention and returns how many rows it
// removed.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention).Unix()
	var total int64
	for _, table := range []string{"visits", "preference_events"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE ts < ?`, cutoff)
		if err != nil {
			return total, errors.Wrapf(err, "cleaning %s", table)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

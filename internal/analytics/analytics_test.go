package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.SetClock(func() time.Time { return now })
	return s
}

func TestHashIP(t *testing.T) {
	s := setupStore(t, time.Now())
	a := s.HashIP("203.0.113.7")
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16", len(a))
	}
	if a != s.HashIP("203.0.113.7") {
		t.Error("hash is not stable within a process")
	}
	if a == s.HashIP("203.0.113.8") {
		t.Error("different addresses hash the same")
	}

	other := setupStore(t, time.Now())
	if a == other.HashIP("203.0.113.7") {
		t.Error("stores share a salt")
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	s := setupStore(t, now)
	ctx := context.Background()

	visits := []Visit{
		{HashedIP: "a", Path: "/", Timestamp: now.Add(-time.Hour)},
		{HashedIP: "a", Path: "/s/x", Timestamp: now.Add(-2 * time.Hour)},
		{HashedIP: "b", Path: "/", Timestamp: now.Add(-3 * 24 * time.Hour)},
		{HashedIP: "c", Path: "/", Timestamp: now.Add(-30 * 24 * time.Hour)},
	}
	for _, v := range visits {
		if err := s.RecordVisit(ctx, v); err != nil {
			t.Fatalf("RecordVisit: %v", err)
		}
	}
	for _, e := range []PreferenceEvent{
		{Kind: PreferenceLocale, Value: "en"},
		{Kind: PreferenceLocale, Value: "en"},
		{Kind: PreferenceLocale, Value: "ja"},
		{Kind: PreferenceTheme, Value: "dark"},
	} {
		if err := s.RecordPreference(ctx, e); err != nil {
			t.Fatalf("RecordPreference: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVisits != 4 {
		t.Errorf("total = %d, want 4", stats.TotalVisits)
	}
	if stats.UniqueVisitors != 3 {
		t.Errorf("unique = %d, want 3", stats.UniqueVisitors)
	}
	if stats.VisitsToday != 2 {
		t.Errorf("today = %d, want 2", stats.VisitsToday)
	}
	if stats.VisitsThisWeek != 3 {
		t.Errorf("week = %d, want 3", stats.VisitsThisWeek)
	}
	if stats.PreferenceEvents != 4 {
		t.Errorf("preference events = %d, want 4", stats.PreferenceEvents)
	}
	if len(stats.Locales) != 2 || stats.Locales[0] != (Count{Key: "en", Count: 2}) {
		t.Errorf("locales = %+v", stats.Locales)
	}
	if len(stats.Themes) != 1 || stats.Themes[0].Key != "dark" {
		t.Errorf("themes = %+v", stats.Themes)
	}
	if len(stats.RecentVisits) != 4 || stats.RecentVisits[0].Path != "/" || stats.RecentVisits[0].HashedIP != "a" {
		t.Errorf("recent = %+v", stats.RecentVisits)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := setupStore(t, time.Now())
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVisits != 0 || stats.RecentVisits == nil || stats.Locales == nil {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestCleanup(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	s := setupStore(t, now)
	ctx := context.Background()

	old := now.Add(-400 * 24 * time.Hour)
	s.RecordVisit(ctx, Visit{HashedIP: "a", Timestamp: old})
	s.RecordVisit(ctx, Visit{HashedIP: "b", Timestamp: now})
	s.RecordPreference(ctx, PreferenceEvent{Kind: PreferenceTheme, Value: "dark", Timestamp: old})

	n, err := s.Cleanup(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d rows, want 2", n)
	}
	stats, _ := s.Stats(ctx)
	if stats.TotalVisits != 1 || stats.PreferenceEvents != 0 {
		t.Errorf("after cleanup: %+v", stats)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "portfolio.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordVisit(context.Background(), Visit{HashedIP: "a", Path: "/"}); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisits != 1 {
		t.Errorf("visits after reopen = %d", stats.TotalVisits)
	}
}

func TestRejectsUnknownPreferenceKind(t *testing.T) {
	s := setupStore(t, time.Now())
	if err := s.RecordPreference(context.Background(), PreferenceEvent{Kind: "font", Value: "serif"}); err == nil {
		t.Error("expected constraint error for unknown kind")
	}
}

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Verify the database file doesn't exist yet
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"settings", "sessions", "interactions", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	version, dirty, err := s.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("MigrateVersion() = %d, %v; want 1, false", version, dirty)
	}
}

func TestNewStore_ReopenIsNoChange(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Settings().SetBool(SettingShowLandmarks, true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	got, err := s.Settings().GetBool(SettingShowLandmarks, false)
	if err != nil || !got {
		t.Errorf("GetBool() = %v, %v; want true, nil", got, err)
	}
}

func TestStore_MigrateDown(t *testing.T) {
	s := newTestStore(t)

	if err := s.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	var name string
	err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='interactions'").Scan(&name)
	if err == nil {
		t.Error("interactions table should be dropped")
	}

	if err := s.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	// After closing, DB operations should fail
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}

	err := s.Interactions().Record(&Interaction{SessionID: "missing", Kind: InteractionDragStart})
	if err == nil {
		t.Error("interaction for unknown session should violate foreign key")
	}
}

func TestStore_IndexesCreated(t *testing.T) {
	s := newTestStore(t)

	indexes := []string{
		"idx_interactions_session_id",
		"idx_interactions_created_at",
	}
	for _, idx := range indexes {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	t.Run("missing key", func(t *testing.T) {
		if _, err := settings.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
		got, err := settings.GetBool("nope", true)
		if err != nil || !got {
			t.Errorf("GetBool() = %v, %v; want default true", got, err)
		}
	})

	t.Run("set and overwrite", func(t *testing.T) {
		if err := settings.SetBool(SettingShowLandmarks, true); err != nil {
			t.Fatalf("SetBool() error = %v", err)
		}
		if err := settings.SetBool(SettingShowLandmarks, false); err != nil {
			t.Fatalf("SetBool() error = %v", err)
		}
		got, err := settings.GetBool(SettingShowLandmarks, true)
		if err != nil || got {
			t.Errorf("GetBool() = %v, %v; want false", got, err)
		}
	})

	t.Run("unparsable value falls back", func(t *testing.T) {
		if err := settings.Set(SettingTrackingEnabled, "maybe"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := settings.GetBool(SettingTrackingEnabled, true)
		if err != nil || !got {
			t.Errorf("GetBool() = %v, %v; want default true", got, err)
		}
	})

	t.Run("all", func(t *testing.T) {
		all, err := settings.All()
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(all) != 2 || all[SettingShowLandmarks] != "false" {
			t.Errorf("All() = %v", all)
		}
	})
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	sessions := s.Sessions()

	sess, err := sessions.Start(3)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Start() should assign an ID")
	}

	got, err := sessions.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Targets != 3 || got.EndedAt != nil {
		t.Errorf("GetByID() = %+v, want 3 targets and open", got)
	}

	if err := sessions.End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := sessions.End(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End() error = %v, want ErrNotFound", err)
	}

	got, err = sessions.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt == nil {
		t.Error("session should be ended")
	}

	if _, err := sessions.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestInteractions(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Sessions().Start(1)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	kinds := []InteractionKind{InteractionCollisionOn, InteractionDragStart, InteractionDragEnd}
	for _, k := range kinds {
		err := s.Interactions().Record(&Interaction{SessionID: sess.ID, Kind: k, TargetID: "box", X: 1, Y: 2, Z: 3})
		if err != nil {
			t.Fatalf("Record(%s) error = %v", k, err)
		}
	}

	all, err := s.Interactions().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d, want 3", len(all))
	}
	if all[0].Kind != InteractionDragEnd {
		t.Errorf("List()[0].Kind = %s, want newest first", all[0].Kind)
	}
	if all[0].X != 1 || all[0].Z != 3 || all[0].TargetID != "box" {
		t.Errorf("List()[0] = %+v", all[0])
	}

	limited, err := s.Interactions().List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d", len(limited))
	}

	n, err := s.Interactions().CountBySession(sess.ID)
	if err != nil || n != 3 {
		t.Errorf("CountBySession() = %d, %v; want 3", n, err)
	}

	bad := &Interaction{SessionID: sess.ID, Kind: "wave"}
	if err := s.Interactions().Record(bad); err == nil {
		t.Error("unknown kind should be rejected")
	}
}

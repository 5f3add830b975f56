package reminder

import (
	"path/filepath"
	"testing"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "reminders.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_GetPutDelete(t *testing.T) {
	store := openTestStore(t)

	t.Run("get missing record", func(t *testing.T) {
		_, found, err := store.Get("missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("Get() found = true for missing record")
		}
	})

	t.Run("put and get", func(t *testing.T) {
		rec := announce.ReminderRecord{AnnouncementID: "a1", StrikeCount: 1}
		if err := store.Put(rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, found, err := store.Get("a1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found {
			t.Fatal("Get() found = false after Put")
		}
		if got != rec {
			t.Errorf("Get() = %+v, want %+v", got, rec)
		}
	})

	t.Run("put is an upsert", func(t *testing.T) {
		if err := store.Put(announce.ReminderRecord{AnnouncementID: "a1", StrikeCount: 2}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, _, err := store.Get("a1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.StrikeCount != 2 {
			t.Errorf("StrikeCount = %d, want 2", got.StrikeCount)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete("a1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		_, found, err := store.Get("a1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("record still present after Delete")
		}
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		if err := store.Delete("never-existed"); err != nil {
			t.Errorf("Delete() error = %v, want nil", err)
		}
	})
}

// Движок поверх реального стора: состояние переживает переоткрытие базы.
func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	if err := store.Put(announce.ReminderRecord{AnnouncementID: "a1", StrikeCount: 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	store.Close()

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get("a1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || got.StrikeCount != 1 {
		t.Errorf("Get() after reopen = %+v found=%v, want strike 1", got, found)
	}
}

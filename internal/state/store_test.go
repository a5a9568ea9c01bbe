package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := NewFileStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return st, dir
}

func sampleSession(id string, pages ...int) WindowSession {
	return WindowSession{
		WindowID: id,
		TabPages: pages,
		X:        10,
		Y:        20,
		Width:    800,
		Height:   600,
	}
}

func TestSaveActiveKeepsSingleRecord(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveActive(ctx, sampleSession("w1", 1)); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}
	if err := st.SaveActive(ctx, sampleSession("w2", 1, 57)); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	got, err := st.LoadActive(ctx)
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 active record, got %d", len(got))
	}
	if got[0].WindowID != "w2" || len(got[0].TabPages) != 2 {
		t.Errorf("unexpected record: %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set on save")
	}
}

func TestClearActive(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	st.SaveActive(ctx, sampleSession("w1", 1))
	if err := st.ClearActive(ctx); err != nil {
		t.Fatalf("ClearActive failed: %v", err)
	}
	got, _ := st.LoadActive(ctx)
	if len(got) != 0 {
		t.Errorf("expected empty active store, got %d records", len(got))
	}
}

func TestRestoreIsConsumedOnce(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	s := sampleSession("w1", 3, 9)
	s.ActiveTabIndex = 1
	if err := st.SaveForRestore(ctx, s); err != nil {
		t.Fatalf("SaveForRestore failed: %v", err)
	}

	got, err := st.LoadForRestore(ctx)
	if err != nil {
		t.Fatalf("LoadForRestore failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 restore record, got %d", len(got))
	}
	if got[0].ActiveTabIndex != 1 || got[0].TabPages[0] != 3 || got[0].TabPages[1] != 9 {
		t.Errorf("unexpected restore record: %+v", got[0])
	}

	// Loading alone is not destructive.
	again, _ := st.LoadForRestore(ctx)
	if len(again) != 1 {
		t.Errorf("LoadForRestore should not consume the record")
	}

	if err := st.ClearRestored(ctx); err != nil {
		t.Fatalf("ClearRestored failed: %v", err)
	}
	after, _ := st.LoadForRestore(ctx)
	if len(after) != 0 {
		t.Errorf("expected empty restore store after clear, got %d", len(after))
	}
}

func TestStoresAreIndependent(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	st.SaveActive(ctx, sampleSession("active", 1))
	st.SaveForRestore(ctx, sampleSession("closed", 5))
	st.ClearActive(ctx)

	got, _ := st.LoadForRestore(ctx)
	if len(got) != 1 || got[0].WindowID != "closed" {
		t.Errorf("clearing active store touched closed store: %+v", got)
	}
}

func TestSaveActiveRecoversCorruptFile(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(dir, "active_sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := st.SaveActive(ctx, sampleSession("w1", 1, 57)); err != nil {
		t.Fatalf("SaveActive on corrupt store should succeed, got %v", err)
	}

	backups, _ := filepath.Glob(path + ".corrupted.*.bak")
	if len(backups) != 1 {
		t.Errorf("expected 1 backup, got %d", len(backups))
	}

	got, _ := st.LoadActive(ctx)
	if len(got) != 1 || got[0].WindowID != "w1" {
		t.Errorf("expected fresh record after recovery, got %+v", got)
	}
}

func TestLoadForRestoreRecoversCorruptFile(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(dir, "closed_sessions.json")
	os.WriteFile(path, []byte("\x00\x01garbage"), 0644)

	got, err := st.LoadForRestore(ctx)
	if err != nil {
		t.Fatalf("LoadForRestore should swallow corruption, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("corrupt file should have been moved aside")
	}
}

func TestInvalidRecordOnDiskIsTreatedAsCorrupt(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	bad := fileDocument{Records: []WindowSession{{WindowID: "w", TabPages: []int{1, 3, 5, 7}}}}
	data, _ := json.Marshal(bad)
	path := filepath.Join(dir, "closed_sessions.json")
	os.WriteFile(path, data, 0644)

	got, _ := st.LoadForRestore(ctx)
	if len(got) != 0 {
		t.Errorf("expected invalid record to be rejected, got %+v", got)
	}
}

func TestCorruptedBackupsArePruned(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(dir, "active_sessions.json")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < MaxCorruptedBackups+2; i++ {
		name := fmt.Sprintf("%s.corrupted.2020010%d_000000.bak", path, i)
		os.WriteFile(name, []byte("old"), 0644)
		mt := base.Add(time.Duration(i) * time.Minute)
		os.Chtimes(name, mt, mt)
	}
	os.WriteFile(path, []byte("broken"), 0644)

	if err := st.SaveActive(ctx, sampleSession("w1", 1)); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	backups, _ := filepath.Glob(path + ".corrupted.*.bak")
	if len(backups) != MaxCorruptedBackups {
		t.Errorf("expected %d backups after pruning, got %d", MaxCorruptedBackups, len(backups))
	}
}

func TestCorruptedBackupsInSameSecondAreKept(t *testing.T) {
	st, dir := newTestStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	st.active.b.(*fileBackend).now = func() time.Time { return fixed }

	path := filepath.Join(dir, "active_sessions.json")
	contents := []string{"first broken", "second broken"}
	for _, c := range contents {
		os.WriteFile(path, []byte(c), 0644)
		if err := st.SaveActive(ctx, sampleSession("w1", 1)); err != nil {
			t.Fatalf("SaveActive failed: %v", err)
		}
	}

	backups, _ := filepath.Glob(path + ".corrupted.*.bak")
	if len(backups) != len(contents) {
		t.Fatalf("expected %d backups, got %v", len(contents), backups)
	}
	seen := make(map[string]bool)
	for _, b := range backups {
		data, err := os.ReadFile(b)
		if err != nil {
			t.Fatalf("read backup: %v", err)
		}
		seen[string(data)] = true
	}
	for _, c := range contents {
		if !seen[c] {
			t.Errorf("backup holding %q was lost", c)
		}
	}
}

func TestRecoverFallsBackWhenRenameFails(t *testing.T) {
	tests := []struct {
		name       string
		rename     func(oldpath, newpath string) error
		wantBackup bool
	}{
		{
			name:       "copy then delete",
			rename:     func(string, string) error { return errors.New("file in use") },
			wantBackup: true,
		},
		{
			name: "delete only",
			rename: func(_, newpath string) error {
				// A directory in the way makes the copy fail too.
				os.Mkdir(newpath, 0755)
				return errors.New("file in use")
			},
			wantBackup: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, dir := newTestStore(t)
			ctx := context.Background()
			st.active.b.(*fileBackend).rename = tt.rename

			path := filepath.Join(dir, "active_sessions.json")
			os.WriteFile(path, []byte("{broken"), 0644)

			if got, err := st.LoadActive(ctx); err != nil || len(got) != 0 {
				t.Fatalf("LoadActive = %v, %v; want no records", got, err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("corrupt file should have been removed")
			}

			var regular []string
			backups, _ := filepath.Glob(path + ".corrupted.*.bak")
			for _, b := range backups {
				if info, err := os.Stat(b); err == nil && info.Mode().IsRegular() {
					regular = append(regular, b)
				}
			}
			if tt.wantBackup {
				if len(regular) != 1 {
					t.Fatalf("expected 1 backup file, got %v", regular)
				}
				if data, _ := os.ReadFile(regular[0]); string(data) != "{broken" {
					t.Errorf("backup content = %q", data)
				}
			} else if len(regular) != 0 {
				t.Errorf("expected no backup file, got %v", regular)
			}

			if err := st.SaveActive(ctx, sampleSession("w1", 1, 57)); err != nil {
				t.Fatalf("SaveActive after recovery failed: %v", err)
			}
			got, _ := st.LoadActive(ctx)
			if len(got) != 1 || got[0].WindowID != "w1" {
				t.Errorf("expected fresh record, got %+v", got)
			}
		})
	}
}

func TestSaveRejectsInvalidSession(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		s    WindowSession
	}{
		{"no tabs", WindowSession{WindowID: "w"}},
		{"too many tabs", sampleSession("w", 1, 3, 5, 7)},
		{"page out of range", sampleSession("w", 1, 200)},
		{"active index past tabs", WindowSession{WindowID: "w", TabPages: []int{1}, ActiveTabIndex: 1}},
		{"missing id", sampleSession("", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.SaveActive(ctx, tt.s)
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("SaveActive err = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestPruneOlderThan(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -45)
	st.now = func() time.Time { return old }
	st.SaveForRestore(ctx, sampleSession("old", 1))

	st.now = time.Now
	if err := st.PruneOlderThan(ctx, 30); err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	got, _ := st.LoadForRestore(ctx)
	if len(got) != 0 {
		t.Errorf("expected old record to be pruned, got %+v", got)
	}

	st.SaveForRestore(ctx, sampleSession("fresh", 1))
	st.PruneOlderThan(ctx, 30)
	got, _ = st.LoadForRestore(ctx)
	if len(got) != 1 {
		t.Errorf("fresh record should survive pruning")
	}
}

func TestConcurrentSaves(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.SaveActive(ctx, sampleSession(fmt.Sprintf("w%d", i), 1+2*(i%3)))
			st.SaveForRestore(ctx, sampleSession(fmt.Sprintf("c%d", i), 3))
		}(i)
	}
	wg.Wait()

	active, err := st.LoadActive(ctx)
	if err != nil || len(active) != 1 {
		t.Errorf("expected one intact active record, got %d (%v)", len(active), err)
	}
	closed, err := st.LoadForRestore(ctx)
	if err != nil || len(closed) != 1 {
		t.Errorf("expected one intact closed record, got %d (%v)", len(closed), err)
	}
}

func TestDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	if got := DefaultDir(); got != filepath.Join(tmpDir, "folio") {
		t.Errorf("DefaultDir() = %q", got)
	}
}

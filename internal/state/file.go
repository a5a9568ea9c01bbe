package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	appDirName = "folio"

	// MaxCorruptedBackups bounds the number of set-aside files kept per store.
	MaxCorruptedBackups = 5

	backupTimeLayout = "20060102_150405"
)

type fileDocument struct {
	Records []WindowSession `json:"records"`
}

type fileBackend struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// DefaultDir returns XDG_STATE_HOME/folio or ~/.local/state/folio.
func DefaultDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appDirName)
}

// NewFileStore creates a Store that keeps one JSON file per logical store in
// dir.
func NewFileStore(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	fileLogger := logger.With().Str("component", "state").Logger()
	st := newStore(
		&fileBackend{path: filepath.Join(dir, activeStoreName+".json"), logger: fileLogger, now: time.Now, rename: os.Rename},
		&fileBackend{path: filepath.Join(dir, closedStoreName+".json"), logger: fileLogger, now: time.Now, rename: os.Rename},
		logger,
	)
	return st, nil
}

func (b *fileBackend) read(_ context.Context) ([]WindowSession, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.path, err)
	}
	for _, s := range doc.Records {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.path, err)
		}
	}
	return doc.Records, nil
}

func (b *fileBackend) write(_ context.Context, sessions []WindowSession) error {
	if sessions == nil {
		sessions = []WindowSession{}
	}
	data, err := json.MarshalIndent(fileDocument{Records: sessions}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

// recover moves the damaged file aside. A rename can fail while another
// process holds the file, so it falls back to copy then delete, and finally to
// delete alone.
func (b *fileBackend) recover(_ context.Context, cause error) {
	if _, err := os.Stat(b.path); err != nil {
		return
	}

	backup := b.backupPath()
	if err := b.rename(b.path, backup); err != nil {
		if err := copyFile(b.path, backup); err != nil {
			b.logger.Error().Err(err).Str("path", b.path).Msg("backup of corrupted store failed")
		}
		if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
			b.logger.Error().Err(err).Str("path", b.path).Msg("remove corrupted store failed")
		}
	}
	b.logger.Info().Str("path", b.path).Str("backup", backup).AnErr("cause", cause).Msg("corrupted store set aside")

	b.pruneBackups()
}

// backupPath returns an unused backup name. Names carry one-second
// resolution, so a counter is added when the stamp is already taken.
func (b *fileBackend) backupPath() string {
	stem := b.path + ".corrupted." + b.now().UTC().Format(backupTimeLayout)
	backup := stem + ".bak"
	for n := 1; ; n++ {
		if _, err := os.Lstat(backup); errors.Is(err, os.ErrNotExist) {
			return backup
		}
		backup = fmt.Sprintf("%s.%d.bak", stem, n)
	}
}

func (b *fileBackend) pruneBackups() {
	matches, err := filepath.Glob(b.path + ".corrupted.*.bak")
	if err != nil || len(matches) <= MaxCorruptedBackups {
		return
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	var backups []backupFile
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{path: m, modTime: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].path > backups[j].path
		}
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, extra := range backups[min(MaxCorruptedBackups, len(backups)):] {
		if err := os.Remove(extra.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Debug().Err(err).Str("path", extra.path).Msg("remove old backup failed")
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

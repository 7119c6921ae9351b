package weights

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	backupInfix  = ".backup."
	stampLayout  = "20060102_150405"
	stampAttempt = 8
)

// Backup is one rotated copy of the record.
type Backup struct {
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path"`
	Created   time.Time `json:"created"`
}

// ListBackups returns the indexed backups, newest first.
func (s *Store) ListBackups() []Backup {
	out := make([]Backup, len(s.backups))
	for i, b := range s.backups {
		out[len(out)-1-i] = b
	}
	return out
}

// RestoreFromBackup makes the index-th newest backup (0 = most recent) the
// live record and loads it. It reports false without touching anything when
// there is no such backup or the store is not persistent.
func (s *Store) RestoreFromBackup(index int) (bool, error) {
	if !s.enabled || index < 0 || index >= len(s.backups) {
		return false, nil
	}
	b := s.backups[len(s.backups)-1-index]

	data, err := os.ReadFile(b.Path)
	if err != nil {
		return false, &LoadError{Path: b.Path, Err: err}
	}
	theta1, theta2, b1, b2, err := decodeTensors(b.Path, data)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, &IOError{Op: "mkdir", Path: filepath.Dir(s.path), Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return false, err
	}

	s.Theta1, s.Theta2, s.B1, s.B2 = theta1, theta2, b1, b2
	return true, nil
}

// rotate copies the live record into a new backup and prunes the index.
func (s *Store) rotate(maxBackups int) error {
	src, err := os.Open(s.path)
	if err != nil {
		return &IOError{Op: "backup", Path: s.path, Err: err}
	}
	defer src.Close()

	var (
		dst   *os.File
		entry Backup
	)
	for attempt := 0; attempt < stampAttempt; attempt++ {
		entry = s.nextBackup()
		dst, err = os.OpenFile(entry.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return &IOError{Op: "backup", Path: entry.Path, Err: err}
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(entry.Path)
		return &IOError{Op: "backup", Path: entry.Path, Err: err}
	}

	s.backups = append(s.backups, entry)
	return s.prune(maxBackups)
}

// nextBackup returns a backup entry whose stamp sorts after every earlier one.
func (s *Store) nextBackup() Backup {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t

	stamp := formatStamp(t)
	return Backup{
		Timestamp: stamp,
		Path:      s.path + backupInfix + stamp,
		Created:   t,
	}
}

func (s *Store) prune(maxBackups int) error {
	if maxBackups < 0 {
		maxBackups = 0
	}
	for len(s.backups) > maxBackups {
		oldest := s.backups[0]
		if err := os.Remove(oldest.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Op: "prune", Path: oldest.Path, Err: err}
		}
		s.backups = s.backups[1:]
	}
	return nil
}

// scanBackups seeds the index from files next to the record.
func (s *Store) scanBackups() error {
	dir := filepath.Dir(s.path)
	prefix := filepath.Base(s.path) + backupInfix

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan backups in %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stamp := strings.TrimPrefix(name, prefix)
		created, ok := parseStamp(stamp)
		if !ok {
			created = info.ModTime()
		}
		s.backups = append(s.backups, Backup{
			Timestamp: stamp,
			Path:      filepath.Join(dir, name),
			Created:   created,
		})
	}

	sort.SliceStable(s.backups, func(i, j int) bool {
		a, b := s.backups[i], s.backups[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.Path < b.Path
	})
	if n := len(s.backups); n > 0 && s.backups[n-1].Created.After(s.last) {
		s.last = s.backups[n-1].Created
	}
	return nil
}

// formatStamp renders t as YYYYmmdd_HHMMSS_micro.
func formatStamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format(stampLayout), t.Nanosecond()/int(time.Microsecond))
}

func parseStamp(stamp string) (time.Time, bool) {
	i := strings.LastIndexByte(stamp, '_')
	if i < 0 || len(stamp)-i-1 != 6 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(stampLayout, stamp[:i], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	micros, err := strconv.Atoi(stamp[i+1:])
	if err != nil || micros < 0 {
		return time.Time{}, false
	}
	return t.Add(time.Duration(micros) * time.Microsecond), true
}

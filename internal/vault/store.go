package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"rizesync/internal/core"
)

// Store resolves note paths inside a vault.
type Store struct {
	root      string
	dailyDir  string
	weeklyDir string
}

// NewStore returns a store rooted at vaultPath. dailyDir and weeklyDir are
// relative to the vault unless absolute.
func NewStore(vaultPath, dailyDir, weeklyDir string) *Store {
	return &Store{root: vaultPath, dailyDir: dailyDir, weeklyDir: weeklyDir}
}

// DailyPath is <vault>/<daily>/<YYYY-MM-DD>.md.
func (s *Store) DailyPath(day time.Time) string {
	return filepath.Join(s.dir(s.dailyDir), core.DayKey(day)+".md")
}

// WeeklyPath is <vault>/<weekly>/<YYYY>-W<WW>.md.
func (s *Store) WeeklyPath(day time.Time) string {
	return filepath.Join(s.dir(s.weeklyDir), core.WeekKey(day)+".md")
}

func (s *Store) dir(sub string) string {
	if filepath.IsAbs(sub) {
		return sub
	}
	return filepath.Join(s.root, sub)
}

// DailyHeader is the initial content of a new daily note.
func DailyHeader(day time.Time) string {
	return fmt.Sprintf("# Daily Log: %s\n\n", core.DayKey(day))
}

// WeeklyHeader is the initial content of a new weekly note.
func WeeklyHeader(day time.Time) string {
	return fmt.Sprintf("# Weekly Log: %s\n\n", core.WeekKey(day))
}

// EnsureExists creates path with header when no note exists there yet,
// creating missing directories on the way. It reports whether a note was
// created.
func EnsureExists(path, header string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat note: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create note directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create note: %w", err)
	}
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return false, fmt.Errorf("write note header: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close note: %w", err)
	}
	return true, nil
}

// Load reads and parses the note at path.
func Load(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read note: %w", err)
	}
	doc, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Save writes the whole note back to path.
func Save(path string, doc *Document) error {
	content, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	return nil
}

// Update loads the note at path, applies fn and saves the result.
func Update(path string, fn func(*Document) error) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return Save(path, doc)
}

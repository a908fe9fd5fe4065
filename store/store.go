// Package store persists application state in a directory of JSON files,
// one per storage key. Failures never surface past the adapter: saves
// degrade to no-ops and loads to empty results, logged on the developer
// channel only.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo-app/model"
)

// Storage keys, shared with the original browser build of the app.
const (
	TasksKey = "todo-app-tasks"
	ThemeKey = "todo-app-theme"
)

// Theme names accepted under ThemeKey.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const maxRotatingBackups = 5

var errNoValidBackup = errors.New("no valid backup found")

// Adapter reads and writes the task collection and theme preference.
type Adapter struct {
	dir string
	log *log.Logger
}

// New returns an adapter rooted at dir. A nil logger discards diagnostics.
func New(dir string, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Adapter{dir: dir, log: logger}
}

// TasksPath returns the path of the persisted task collection.
func (a *Adapter) TasksPath() string {
	return a.keyPath(TasksKey)
}

func (a *Adapter) keyPath(key string) string {
	return filepath.Join(a.dir, key+".json")
}

// SaveTasks serializes the full collection under TasksKey. Failures are
// swallowed; the previous on-disk state is kept as a backup first.
func (a *Adapter) SaveTasks(tasks []model.Task) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	if err := a.autosave(a.keyPath(TasksKey), tasks); err != nil {
		a.log.Debug("save tasks failed", "err", err)
	}
}

// LoadTasks deserializes the collection under TasksKey. It returns an empty
// slice when the key is absent, the store fails, or the payload cannot be
// repaired from a backup. Records failing schema validation are dropped.
func (a *Adapter) LoadTasks() []model.Task {
	path := a.keyPath(TasksKey)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.log.Debug("read tasks failed", "err", err)
		}
		return []model.Task{}
	}

	tasks, err := a.decodeTasks(data)
	if err == nil {
		return tasks
	}
	a.log.Debug("tasks payload corrupt", "err", err)

	if corruptPath, moveErr := moveCorruptFile(path); moveErr != nil {
		a.log.Debug("quarantine corrupt tasks file failed", "err", moveErr)
	} else if corruptPath != "" {
		a.log.Debug("corrupt tasks file moved", "path", corruptPath)
	}

	recovered, backupPath, backupErr := a.loadLatestValidBackup(path)
	if backupErr != nil {
		if !errors.Is(backupErr, errNoValidBackup) {
			a.log.Debug("inspect backups failed", "err", backupErr)
		}
		return []model.Task{}
	}

	a.log.Debug("tasks recovered from backup", "backup", filepath.Base(backupPath))
	if err := a.autosave(path, recovered); err != nil {
		a.log.Debug("rewrite recovered tasks failed", "err", err)
	}
	return recovered
}

// Clear removes the persisted task collection and its backups.
func (a *Adapter) Clear() {
	path := a.keyPath(TasksKey)
	for _, p := range append([]string{path, path + ".bak"}, globOrNone(path+".bak.*")...) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.log.Debug("clear tasks failed", "path", p, "err", err)
		}
	}
}

// SaveTheme stores the theme name under ThemeKey. Unknown names are ignored.
func (a *Adapter) SaveTheme(name string) {
	if name != ThemeLight && name != ThemeDark {
		a.log.Debug("ignoring unknown theme", "name", name)
		return
	}
	if err := ensureDir(a.keyPath(ThemeKey)); err != nil {
		a.log.Debug("save theme failed", "err", err)
		return
	}
	data, err := json.Marshal(name)
	if err != nil {
		a.log.Debug("save theme failed", "err", err)
		return
	}
	if err := os.WriteFile(a.keyPath(ThemeKey), append(data, '\n'), 0o644); err != nil {
		a.log.Debug("save theme failed", "err", err)
	}
}

// HasTheme reports whether a theme preference has ever been stored.
func (a *Adapter) HasTheme() bool {
	_, err := os.Stat(a.keyPath(ThemeKey))
	return err == nil
}

// LoadTheme returns the stored theme name, or ThemeLight when the key is
// absent, unreadable, or holds an unknown value.
func (a *Adapter) LoadTheme() string {
	data, err := os.ReadFile(a.keyPath(ThemeKey))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.log.Debug("read theme failed", "err", err)
		}
		return ThemeLight
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		a.log.Debug("theme payload corrupt", "err", err)
		return ThemeLight
	}
	if name != ThemeLight && name != ThemeDark {
		return ThemeLight
	}
	return name
}

// decodeTasks unmarshals a JSON array of tasks and validates each record,
// dropping the ones that fail the schema instead of trusting the blob.
func (a *Adapter) decodeTasks(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if err := model.Validate(t); err != nil {
			a.log.Debug("dropping invalid persisted task", "id", t.ID, "err", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// autosave writes via temporary file + atomic rename, keeping a latest
// backup (.bak) and a rotating timestamped backup set.
func (a *Adapter) autosave(path string, tasks []model.Task) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := backup(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return pruneRotatingBackups(path)
}

func pruneRotatingBackups(path string) error {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= maxRotatingBackups {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-maxRotatingBackups] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (a *Adapter) loadLatestValidBackup(path string) ([]model.Task, string, error) {
	candidates := make([]string, 0, maxRotatingBackups+1)
	latest := path + ".bak"
	if _, err := os.Stat(latest); err == nil {
		candidates = append(candidates, latest)
	}
	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, "", err
	}
	candidates = append(candidates, rotating...)
	if len(candidates) == 0 {
		return nil, "", errNoValidBackup
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iInfo, iErr := os.Stat(candidates[i])
		jInfo, jErr := os.Stat(candidates[j])
		if iErr != nil || jErr != nil {
			return candidates[i] > candidates[j]
		}
		return iInfo.ModTime().After(jInfo.ModTime())
	})

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		tasks, err := a.decodeTasks(data)
		if err != nil {
			continue
		}
		return tasks, candidate, nil
	}

	return nil, "", errNoValidBackup
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405")
	corruptName := fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext)
	corruptPath := filepath.Join(filepath.Dir(path), corruptName)
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}

func globOrNone(pattern string) []string {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	return files
}

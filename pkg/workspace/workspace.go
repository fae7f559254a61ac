package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/resource"
)

const loadConcurrency = 8

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrDuplicateFile  = errors.New("duplicate file name")
	ErrEmptyKey       = errors.New("key cannot be empty")
	ErrKeyNotFound    = errors.New("key not found")
	ErrKeyExists      = errors.New("key already exists")
	ErrModifiedOnDisk = errors.New("file was modified on disk")
)

// PendingEdit is a new key together with one value per open file.
type PendingEdit struct {
	Key    string
	Values map[string]string
}

// Match is a single key/value pair of an open file.
type Match struct {
	File  string
	Key   string
	Value string
}

type MissingKey struct {
	Key   string
	Files []string
}

type openFile struct {
	file *resource.File
	// checksum of the bytes last read from or written to disk, empty for new files
	checksum string
	dirty    bool
}

// Workspace is a set of resource files opened side by side. Files are identified
// by their base name and kept in the order they were opened.
type Workspace struct {
	mu         sync.RWMutex
	order      []string
	files      map[string]*openFile
	lastBackup filesys.Snapshot
}

func New() *Workspace {
	return &Workspace{files: make(map[string]*openFile)}
}

// Open creates a workspace from the given resource files.
func Open(ctx context.Context, paths ...string) (*Workspace, error) {
	w := New()
	if err := w.Load(ctx, paths...); err != nil {
		return nil, err
	}
	return w, nil
}

func readFile(path string) (*openFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read resource file: %w", err)
	}
	f, err := resource.Parse(abs, data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Resource file loaded", slog.String("path", abs), slog.Int("entries", f.Len()))
	return &openFile{file: f, checksum: filesys.Checksum(data)}, nil
}

// Load reads the files concurrently and adds them to the workspace. A file with
// the same path as an open one replaces it, a different file with the same name
// is rejected.
func (w *Workspace) Load(ctx context.Context, paths ...string) error {
	loaded := make([]*openFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			of, err := readFile(p)
			if err != nil {
				return err
			}
			loaded[i] = of
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]string, len(loaded))
	for _, of := range loaded {
		name, path := of.file.Name, of.file.Path
		if prev, ok := seen[name]; ok && prev != path {
			return fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateFile, name, prev, path)
		}
		if existing, ok := w.files[name]; ok && existing.file.Path != path {
			return fmt.Errorf("%w: %s is already open from %s", ErrDuplicateFile, name, existing.file.Path)
		}
		seen[name] = path
	}
	for _, of := range loaded {
		w.put(of)
	}
	return nil
}

// Create adds a new empty resource file which is written on the next save.
func (w *Workspace) Create(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("create %s: file already exists", abs)
	}
	f, err := resource.New(abs)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[f.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, f.Name)
	}
	w.put(&openFile{file: f, dirty: true})
	return nil
}

func (w *Workspace) put(of *openFile) {
	if _, ok := w.files[of.file.Name]; !ok {
		w.order = append(w.order, of.file.Name)
	}
	w.files[of.file.Name] = of
}

func (w *Workspace) get(name string) (*openFile, error) {
	of, ok := w.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return of, nil
}

// Names returns the names of open files in the order they were opened.
func (w *Workspace) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.order...)
}

func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.order))
	for _, name := range w.order {
		paths = append(paths, w.files[name].file.Path)
	}
	return paths
}

func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}

func (w *Workspace) Value(name, key string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	of, ok := w.files[name]
	if !ok {
		return "", false
	}
	return of.file.Get(key)
}

// Values returns the value of key for every file which has it.
func (w *Workspace) Values(key string) map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	values := make(map[string]string)
	for _, name := range w.order {
		if v, ok := w.files[name].file.Get(key); ok {
			values[name] = v
		}
	}
	return values
}

func (w *Workspace) checkValues(values map[string]string) error {
	for name := range values {
		if _, err := w.get(name); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workspace) setValues(key string, values map[string]string) {
	for _, name := range w.order {
		v, ok := values[name]
		if !ok {
			continue
		}
		of := w.files[name]
		of.file.Set(key, v)
		of.dirty = true
	}
}

// Add merges a pending edit into every file named in it. An existing key is overwritten.
func (w *Workspace) Add(edit PendingEdit) error {
	if strings.TrimSpace(edit.Key) == "" {
		return ErrEmptyKey
	}
	if len(edit.Values) == 0 {
		return fmt.Errorf("add %q: no values given", edit.Key)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkValues(edit.Values); err != nil {
		return fmt.Errorf("add %q: %w", edit.Key, err)
	}
	w.setValues(edit.Key, edit.Values)
	slog.Debug("Key added", slog.String("key", edit.Key), slog.Int("files", len(edit.Values)))
	return nil
}

// AddTo sets a single key in a single file.
func (w *Workspace) AddTo(name, key, value string) error {
	return w.Add(PendingEdit{Key: key, Values: map[string]string{name: value}})
}

// Edit changes the values of an existing key. Files which lack the key receive it.
func (w *Workspace) Edit(key string, values map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasKey(key) {
		return fmt.Errorf("edit %q: %w", key, ErrKeyNotFound)
	}
	if err := w.checkValues(values); err != nil {
		return fmt.Errorf("edit %q: %w", key, err)
	}
	w.setValues(key, values)
	return nil
}

func (w *Workspace) hasKey(key string) bool {
	for _, name := range w.order {
		if w.files[name].file.Has(key) {
			return true
		}
	}
	return false
}

// Delete removes key from every file where it is present and returns the affected files.
func (w *Workspace) Delete(key string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var affected []string
	for _, name := range w.order {
		of := w.files[name]
		if !of.file.Has(key) {
			continue
		}
		of.file.Delete(key)
		of.dirty = true
		affected = append(affected, name)
	}
	slog.Debug("Key deleted", slog.String("key", key), slog.Any("files", affected))
	return affected
}

// Rename renames a key in every file which has it, keeping its position.
func (w *Workspace) Rename(oldKey, newKey string) ([]string, error) {
	if strings.TrimSpace(newKey) == "" {
		return nil, ErrEmptyKey
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasKey(oldKey) {
		return nil, fmt.Errorf("rename %q: %w", oldKey, ErrKeyNotFound)
	}
	if oldKey == newKey {
		return nil, nil
	}
	for _, name := range w.order {
		if w.files[name].file.Has(newKey) {
			return nil, fmt.Errorf("rename %q to %q: %w in %s", oldKey, newKey, ErrKeyExists, name)
		}
	}

	var affected []string
	for _, name := range w.order {
		of := w.files[name]
		if !of.file.Has(oldKey) {
			continue
		}
		if err := of.file.Rename(oldKey, newKey); err != nil {
			return affected, err
		}
		of.dirty = true
		affected = append(affected, name)
	}
	return affected, nil
}

// Keys returns the union of keys of all files in first-seen order.
func (w *Workspace) Keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.keys()
}

func (w *Workspace) keys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, name := range w.order {
		w.files[name].file.Range(func(key string, _ resource.Entry) bool {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
			return true
		})
	}
	return keys
}

// Entries returns every key/value pair, file by file in file order.
func (w *Workspace) Entries() []Match {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var matches []Match
	for _, name := range w.order {
		w.files[name].file.Range(func(key string, e resource.Entry) bool {
			matches = append(matches, Match{File: name, Key: key, Value: e.Value})
			return true
		})
	}
	return matches
}

// Search looks for keys containing query, ignoring case. When no key matches the
// values are searched instead. Every matched key is then reported for all files
// having it, sorted by file name and key. An empty query returns all entries.
func (w *Workspace) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return w.Entries()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	matched := w.matchKeys(func(key string, _ resource.Entry) bool {
		return strings.Contains(strings.ToLower(key), q)
	})
	if len(matched) == 0 {
		matched = w.matchKeys(func(_ string, e resource.Entry) bool {
			return strings.Contains(strings.ToLower(e.Value), q)
		})
	}

	var results []Match
	for _, name := range w.order {
		w.files[name].file.Range(func(key string, e resource.Entry) bool {
			if _, ok := matched[key]; ok {
				results = append(results, Match{File: name, Key: key, Value: e.Value})
			}
			return true
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].File != results[j].File {
			return results[i].File < results[j].File
		}
		return results[i].Key < results[j].Key
	})
	return results
}

func (w *Workspace) matchKeys(match func(key string, e resource.Entry) bool) map[string]struct{} {
	matched := make(map[string]struct{})
	for _, name := range w.order {
		w.files[name].file.Range(func(key string, e resource.Entry) bool {
			if match(key, e) {
				matched[key] = struct{}{}
			}
			return true
		})
	}
	return matched
}

// Missing reports keys which are absent from some of the open files.
func (w *Workspace) Missing() []MissingKey {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var missing []MissingKey
	for _, key := range w.keys() {
		var lacking []string
		for _, name := range w.order {
			if !w.files[name].file.Has(key) {
				lacking = append(lacking, name)
			}
		}
		if len(lacking) > 0 {
			missing = append(missing, MissingKey{Key: key, Files: lacking})
		}
	}
	return missing
}

func (w *Workspace) Dirty() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var dirty []string
	for _, name := range w.order {
		if w.files[name].dirty {
			dirty = append(dirty, name)
		}
	}
	return dirty
}

func (w *Workspace) IsDirty(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	of, ok := w.files[name]
	return ok && of.dirty
}

// Reload reads a file from disk again, dropping unsaved changes of that file.
func (w *Workspace) Reload(name string) error {
	w.mu.RLock()
	of, ok := w.files[name]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	fresh, err := readFile(of.file.Path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	of.file.Replace(fresh.file)
	of.checksum = fresh.checksum
	of.dirty = false
	slog.Info("Resource file reloaded", slog.String("name", name))
	return nil
}

// Changed reports whether the file on disk differs from the version last read or written.
func (w *Workspace) Changed(name string) (bool, error) {
	w.mu.RLock()
	of, ok := w.files[name]
	var path, checksum string
	if ok {
		path, checksum = of.file.Path, of.checksum
	}
	w.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return diskChanged(path, checksum)
}

func diskChanged(path, checksum string) (bool, error) {
	current, err := filesys.ComputeFileChecksum(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return checksum != "", nil
		}
		return false, err
	}
	return current != checksum, nil
}

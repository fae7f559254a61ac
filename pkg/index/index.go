package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/mod/semver"

	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/resource"
)

const (
	IndexFileName  = "resedit.json"
	CurrentVersion = "v1.0.0"
)

var ErrNotFound = errors.New("index file not found")

// Index lists the resource files of a project.
type Index struct {
	Version     string   `json:"version"`
	Files       []string `json:"files"`
	DefaultFile string   `json:"default_file,omitempty"`
}

func New(files ...string) *Index {
	idx := &Index{
		Version: CurrentVersion,
		Files:   append([]string{}, files...),
	}
	if len(files) > 0 {
		idx.DefaultFile = files[0]
	}
	return idx
}

func ReadIndex(dirPath string) (*Index, error) {
	return ReadIndexFile(filepath.Join(dirPath, IndexFileName))
}

func ReadIndexFile(fPath string) (*Index, error) {
	file, err := os.Open(fPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fPath)
		}
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	idx, err := DecodeIndex(file)
	if err != nil {
		return nil, fmt.Errorf("decode index file: %w", err)
	}
	if err := idx.Check(); err != nil {
		return nil, fmt.Errorf("check index file: %w", err)
	}
	return idx, nil
}

func DecodeIndex(input io.Reader) (*Index, error) {
	var idx *Index
	decoder := json.NewDecoder(input)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&idx); err != nil {
		return nil, fmt.Errorf("error decoding index file: %w", err)
	}
	if idx == nil {
		return nil, fmt.Errorf("index file is empty")
	}
	return idx, nil
}

func (idx *Index) Check() error {
	if !semver.IsValid(idx.Version) {
		return fmt.Errorf("$.version: invalid version %q", idx.Version)
	}
	if major := semver.Major(idx.Version); major != semver.Major(CurrentVersion) {
		return fmt.Errorf("$.version: unsupported major version %s", major)
	}
	if len(idx.Files) == 0 {
		return fmt.Errorf("$.files: at least one file is required")
	}
	names := make(map[string]int, len(idx.Files))
	for i, p := range idx.Files {
		if p == "" {
			return fmt.Errorf("$.files[%d]: file path cannot be empty", i)
		}
		if !resource.IsSupported(p) {
			return fmt.Errorf("$.files[%d]: invalid resource file extension: %s", i, filepath.Ext(p))
		}
		name := filepath.Base(p)
		if j, ok := names[name]; ok {
			return fmt.Errorf("$.files[%d]: file name %s is already used by $.files[%d]", i, name, j)
		}
		names[name] = i
	}
	if idx.DefaultFile != "" {
		if _, ok := names[filepath.Base(idx.DefaultFile)]; !ok {
			return fmt.Errorf("$.default_file: %s is not listed in files", idx.DefaultFile)
		}
	}
	return nil
}

func (idx *Index) Save(baseDir string) error {
	if err := idx.Check(); err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	return filesys.WriteJSON(filepath.Join(baseDir, IndexFileName), idx)
}

// Paths resolves the listed files relative to baseDir.
func (idx *Index) Paths(baseDir string) []string {
	paths := make([]string, 0, len(idx.Files))
	for _, f := range idx.Files {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(baseDir, filepath.FromSlash(f)))
	}
	return paths
}

// Add appends a file unless a file with the same name is already listed.
func (idx *Index) Add(file string) bool {
	for _, f := range idx.Files {
		if filepath.Base(f) == filepath.Base(file) {
			return false
		}
	}
	idx.Files = append(idx.Files, filepath.ToSlash(file))
	if idx.DefaultFile == "" {
		idx.DefaultFile = idx.Files[0]
	}
	return true
}

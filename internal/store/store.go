package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/atmovis/internal/grid"
)

const manifestName = "manifest.json"

// Store is a directory of grid files, one file per timestep.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Entry describes one grid file in the directory.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the grid files in lexical name order, which is the order the
// viewer plays them back. Other files and subdirectories are skipped. A
// missing directory lists as empty.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !grid.Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    e.Name(),
			Path:    filepath.Join(s.baseDir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Paths is List reduced to file paths.
func (s *Store) Paths() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}

// Save writes g under name, replacing any existing file.
func (s *Store) Save(name string, g *grid.Grid) (string, error) {
	path := s.Path(name)
	if err := grid.Write(path, g); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) Load(name string) (*grid.Grid, error) {
	return grid.Read(s.Path(name))
}

// Manifest records what an extraction job wrote into the directory.
type Manifest struct {
	Job       string    `json:"job"`
	Variable  string    `json:"variable"`
	Date      string    `json:"date"`
	Hours     []int     `json:"hours"`
	Levels    []int     `json:"levels,omitempty"`
	Files     []string  `json:"files"`
	Skipped   []string  `json:"skipped,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Store) SaveManifest(m *Manifest) error {
	f, err := os.Create(s.Path(manifestName))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.Path(manifestName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

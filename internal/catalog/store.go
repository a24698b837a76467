package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

const (
	filePrefix = "jma_eq_"
	fileSuffix = ".csv"
)

// fileNameRe matches catalog files: jma_eq_YYYYMMDD.csv.
var fileNameRe = regexp.MustCompile(`^jma_eq_\d{8}\.csv$`)

// Store reads and writes catalog files in a single directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the catalog directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the catalog file name for a listing date.
func FileName(date time.Time) string {
	return filePrefix + date.Format("20060102") + fileSuffix
}

// Path returns the catalog file path for a listing date.
func (s *Store) Path(date time.Time) string {
	return filepath.Join(s.dir, FileName(date))
}

// Save writes the records for date, replacing any earlier file for that day.
// The file is written to a temporary name and renamed so readers never see a
// partial catalog.
func (s *Store) Save(date time.Time, records []domain.Record) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create catalog dir: %w", err)
	}

	path := s.Path(date)
	tmp, err := os.CreateTemp(s.dir, "."+FileName(date)+".*")
	if err != nil {
		return "", fmt.Errorf("create catalog temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := Write(tmp, records); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return "", fmt.Errorf("write catalog %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close catalog %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename catalog %s: %w", path, err)
	}
	return path, nil
}

// Discover lists the catalog files in ascending file name order, which is
// also date order.
func (s *Store) Discover() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list catalog dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !fileNameRe.MatchString(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads one catalog file.
func (s *Store) Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return rows, nil
}

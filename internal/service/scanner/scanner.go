package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/publicrust/rust-analyzer-sub000/internal/scanner"
	"github.com/publicrust/rust-analyzer-sub000/pkg/config"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	// Files is the sorted, deduplicated list of plugin sources to analyze.
	Files []string
	// Skipped counts files dropped by the size limit.
	Skipped int
}

// Service collects plugin source files for analysis.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault("."),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths scans the given paths and returns the plugin sources found.
// Directories are walked recursively; explicit file paths are included when
// they qualify. Paths default to the current directory.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	seen := make(map[string]bool)
	var files []string

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		if !info.IsDir() {
			ok, err := scan.ScanFile(absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
			if ok && !seen[absPath] {
				seen[absPath] = true
				files = append(files, absPath)
			}
			continue
		}

		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)

	files, skipped := scanner.FilterBySize(files, s.config.MaxFileSize)

	return &ScanResult{Files: files, Skipped: skipped}, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

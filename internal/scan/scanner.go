package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/sparkify-etl/internal/util"
	"github.com/spf13/afero"
)

// DefaultExtensions are the source file extensions picked up when none are
// configured
var DefaultExtensions = []string{".json"}

// Scanner discovers source data files in a directory tree
type Scanner struct {
	fs         afero.Fs
	extensions map[string]bool
}

// Config holds scanner configuration
type Config struct {
	Fs         afero.Fs
	Extensions []string
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range exts {
		extMap[strings.ToLower(ext)] = true
	}

	return &Scanner{
		fs:         fs,
		extensions: extMap,
	}
}

// Discover walks root and returns every matching regular file in walk
// (lexical) order. Unreadable subdirectories are logged and skipped; a missing
// root is an error.
func (s *Scanner) Discover(root string) ([]string, error) {
	if _, ok := s.fs.(*afero.OsFs); ok {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	info, err := s.fs.Stat(root)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: source directory %s", util.ErrNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", root)
	}

	var files []string
	walkErr := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if s.isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return files, fmt.Errorf("walk error: %w", walkErr)
	}

	util.DebugLog("Discovered %d files under %s", len(files), root)
	return files, nil
}

// isSourceFile checks if a file has a configured extension
func (s *Scanner) isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// Package walker resolves command-line arguments (files, directories and
// doublestar globs) into the documents to upload.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/docchat/internal/loader"
)

// DefaultMaxFileSize is the largest file collected from a directory (50 MB).
const DefaultMaxFileSize int64 = 50 << 20

// FileInfo describes one collected document.
type FileInfo struct {
	Path    string        // Path as given or found on disk.
	RelPath string        // Path relative to the directory it was found in.
	Size    int64         // File size in bytes.
	Format  loader.Format // Loader the file will be read with.
}

// Name is the document name the file is registered under.
func (f FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// WalkerConfig controls directory traversal.
type WalkerConfig struct {
	Include     []string // Glob patterns; only matching files are included.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Collect expands args in order. A file is taken as is, a directory is
// walked, and anything else is treated as a doublestar pattern that must
// match at least one path. Paths seen twice are collected once.
func Collect(args []string, config WalkerConfig) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)
	add := func(found []FileInfo) {
		for _, f := range found {
			abs, err := filepath.Abs(f.Path)
			if err != nil {
				abs = f.Path
			}
			if !seen[abs] {
				seen[abs] = true
				files = append(files, f)
			}
		}
	}

	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil {
			found, err := collectPath(arg, config)
			if err != nil {
				return nil, err
			}
			add(found)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("walker: bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("walker: no files match %q", arg)
		}
		for _, m := range matches {
			found, err := collectPath(m, config)
			if err != nil {
				return nil, err
			}
			add(found)
		}
	}
	return files, nil
}

func collectPath(path string, config WalkerConfig) ([]FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if info.IsDir() {
		return Walk(path, config)
	}
	return []FileInfo{{
		Path:    path,
		RelPath: filepath.Base(path),
		Size:    info.Size(),
		Format:  loader.FormatFor(path),
	}}, nil
}

// Walk traverses the directory tree rooted at root and returns every file
// that passes filtering, in lexical order.
func Walk(root string, config WalkerConfig) ([]FileInfo, error) {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		// Only process regular files.
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
			Format:  loader.FormatFor(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	return files, nil
}

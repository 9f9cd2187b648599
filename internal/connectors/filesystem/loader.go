// Package filesystem loads documents from local files and directories.
// Plain text and markdown are supported; everything else is skipped.
package filesystem

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sage-labs/sage-cli/internal/core/domain"
	"github.com/sage-labs/sage-cli/internal/core/ports/driven"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// maxFileSize caps how large a single file may be (8 MiB). Larger files
// are skipped with a warning rather than failing the whole ingestion.
const maxFileSize = 8 << 20

// supportedExtensions lists the file types the loader reads.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Loader reads documents from the local filesystem.
type Loader struct{}

// NewLoader creates a new filesystem document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load returns the documents found at path. A single-file path yields
// one document; a directory is walked recursively. Hidden directories
// are skipped.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		doc, err := l.loadFile(path, info)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: unsupported file type %s", domain.ErrInvalidInput, filepath.Ext(path))
		}
		return []domain.Document{*doc}, nil
	}

	var docs []domain.Document
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && p != path {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		doc, err := l.loadFile(p, info)
		if err != nil {
			return err
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}

	return docs, nil
}

// loadFile reads a single file into a document. Returns nil for files
// the loader does not handle.
func (l *Loader) loadFile(path string, info fs.FileInfo) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, nil
	}
	if info.Size() > maxFileSize {
		logger.Warn("Skipping %s: exceeds size limit", path)
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, nil
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:         DocumentID(path),
		SourcePath: path,
		Title:      documentTitle(path, text),
		Content:    text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DocumentID derives a stable identifier from the source path, so
// re-ingesting a changed file replaces its chunks instead of piling
// up duplicates.
func DocumentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return fmt.Sprintf("doc-%x", sum[:12])
}

// documentTitle prefers the first markdown heading, falling back to the
// file name without its extension.
func documentTitle(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(title)
		}
		if line != "" {
			break
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

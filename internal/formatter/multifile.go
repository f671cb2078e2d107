package formatter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// File is one generated model ready to be written
type File struct {
	Table   string
	Content string
}

// MultiFileWriter writes one file per table into a directory
type MultiFileWriter struct {
	OutputDir string
	Extension string // without the leading dot
}

// NewMultiFileWriter creates a new multi-file writer
func NewMultiFileWriter(outputDir, extension string) *MultiFileWriter {
	if extension == "" {
		extension = "js"
	}
	return &MultiFileWriter{
		OutputDir: outputDir,
		Extension: extension,
	}
}

// Path returns the output path for a table
func (w *MultiFileWriter) Path(table string) string {
	return filepath.Join(w.OutputDir, table+"."+w.Extension)
}

// Write creates the output directory if needed and writes every file concurrently,
// overwriting existing files. It returns after all writes finish, with the first
// error encountered if any failed.
func (w *MultiFileWriter) Write(ctx context.Context, files []File) error {
	if err := os.MkdirAll(w.OutputDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Table == "" || f.Table == "." || f.Table == ".." || filepath.Base(f.Table) != f.Table {
			return fmt.Errorf("table name %q is not a plain file name", f.Table)
		}
		if seen[f.Table] {
			return fmt.Errorf("duplicate output file for table %s", f.Table)
		}
		seen[f.Table] = true
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.WriteFile(w.Path(f.Table), []byte(f.Content), filePerm); err != nil {
				return fmt.Errorf("failed to write table file for %s: %w", f.Table, err)
			}
			return nil
		})
	}
	return g.Wait()
}

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/myfcd/harvester/internal/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// writers maps each format to its table writer
var writers = map[Format]func(io.Writer, domain.FoodTable) error{
	FormatCSV:  WriteCSV,
	FormatJSON: WriteJSON,
	FormatYAML: WriteYAML,
}

// ParseFormats validates a list of format names, dropping duplicates
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := writers[f]; !ok {
			return nil, fmt.Errorf("unknown export format %q (want csv, json or yaml)", name)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats, nil
}

// WriteFiles writes <dir>/<base>.<format> for every format and returns the
// paths written. Each file is written to a temporary file and renamed, so a
// failed export never leaves a truncated file behind.
func WriteFiles(dir, base string, formats []Format, table domain.FoodTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	var paths []string
	for _, f := range formats {
		write, ok := writers[f]
		if !ok {
			return paths, fmt.Errorf("unknown export format %q", f)
		}
		path := filepath.Join(dir, base+"."+string(f))
		if err := writeAtomic(path, func(w io.Writer) error { return write(w, table) }); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeAtomic writes through a temp file in the destination directory and renames it into place
func writeAtomic(destPath string, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := write(tmpFile)
	if writeErr == nil {
		writeErr = tmpFile.Chmod(0o644)
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

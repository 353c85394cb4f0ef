package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is where the JSON artifact is written when no path is given.
const DefaultPath = "data/report.json"

// Format is a report rendering.
type Format string

const (
	JSON Format = "json"
	Text Format = "text"
	HTML Format = "html"
	YAML Format = "yaml"
)

var writers = map[Format]struct {
	ext   string
	write func(io.Writer, *Report) error
}{
	JSON: {".json", WriteJSON},
	Text: {".txt", WriteText},
	HTML: {".html", WriteHTML},
	YAML: {".yaml", WriteYAML},
}

// ParseFormats validates a list of format names. Empty entries are ignored
// and duplicates collapse.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		if f == "" || seen[f] {
			continue
		}
		if _, ok := writers[f]; !ok {
			return nil, fmt.Errorf("unknown report format %q (want json, text, html or yaml)", n)
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// WriteFiles writes the JSON artifact to path, creating parent directories,
// plus one file per extra format next to it with the format's extension.
// It returns the paths written, the JSON artifact first.
func WriteFiles(path string, r *Report, extra ...Format) ([]string, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	written := []string{}
	if err := writeFile(path, r, WriteJSON); err != nil {
		return written, err
	}
	written = append(written, path)

	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, f := range extra {
		if f == JSON {
			continue
		}
		w, ok := writers[f]
		if !ok {
			return written, fmt.Errorf("unknown report format %q", f)
		}
		p := base + w.ext
		if err := writeFile(p, r, w.write); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

func writeFile(path string, r *Report, write func(io.Writer, *Report) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

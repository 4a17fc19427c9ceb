package tabular

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Stdout as an output base writes every format to standard output.
const Stdout = "-"

// ParseFormats accepts a comma separated list of csv, md/markdown and json,
// "both" means csv and markdown.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "csv":
			add(FormatCSV)
		case "md", "markdown":
			add(FormatMarkdown)
		case "json":
			add(FormatJSON)
		case "both":
			add(FormatCSV)
			add(FormatMarkdown)
		default:
			return nil, fmt.Errorf("unknown output format %q", part)
		}
	}
	return out, nil
}

type Options struct {
	CSV      CSVOptions
	Markdown MarkdownOptions
}

func Write(w io.Writer, format Format, t Table, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t, opts.CSV)
	case FormatMarkdown:
		return WriteMarkdown(w, t, opts.Markdown)
	case FormatJSON:
		return WriteJSON(w, t)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// OutputPath swaps a known extension on base for the extension of format.
func OutputPath(base string, format Format) string {
	ext := filepath.Ext(base)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv", "md", "markdown", "json":
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + string(format)
}

// ParsedOutputPath derives `<base>-parsed.<ext>` from an input path, the
// default output of commands that rewrite a file.
func ParsedOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-parsed" + ext
}

// WriteFiles writes the table once per format and returns the written paths.
// Files are written next to their final path and renamed into place so a
// failed run never leaves a truncated output behind.
func WriteFiles(base string, formats []Format, t Table, opts Options) ([]string, error) {
	if base == Stdout {
		for _, f := range formats {
			err := Write(os.Stdout, f, t, opts)
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	var written []string
	for _, f := range formats {
		path := OutputPath(base, f)
		err := writeFile(path, func(w io.Writer) error {
			return Write(w, f, t, opts)
		})
		if err != nil {
			return written, err
		}
		slog.Info("wrote output", "path", path, "rows", len(t.Rows))
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	err = write(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	err = os.Chmod(tmp.Name(), 0o644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteCSVFile writes a single csv file at exactly path.
func WriteCSVFile(path string, t Table, opts CSVOptions) error {
	err := writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, t, opts)
	})
	if err == nil {
		slog.Info("wrote output", "path", path, "rows", len(t.Rows))
	}
	return err
}

// WriteTextFile writes a finished document, e.g. a markdown report, at
// exactly path. Stdout prints it instead.
func WriteTextFile(path string, data []byte) error {
	if path == Stdout {
		_, err := os.Stdout.Write(data)
		return err
	}
	err := writeFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	slog.Info("wrote output", "path", path, "bytes", len(data))
	return nil
}

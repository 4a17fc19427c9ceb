package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hl7tools/lib/timezone"
)

// FilesystemOutput writes each dumped message to its own file in a
// directory.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates a fresh, timestamped directory under parent
// for this run's dumps. Nothing already in parent is touched.
func NewFilesystemOutput(parent string) (FilesystemOutput, error) {
	err := os.MkdirAll(parent, 0o755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	dir, err := os.MkdirTemp(parent, timezone.Stamp(timezone.Now())+"-")
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := filepath.Join(o.directory, fmt.Sprintf("%s.txt", id))
	err := os.WriteFile(path, []byte(contents), 0o600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

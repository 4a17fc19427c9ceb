package resolved

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type staffMember struct {
	DisplayName string `yaml:"display_name"`
}

// ReadStaff loads the reporter names of a staff list, a yaml sequence of
// entries with a display_name. A missing file is an empty list.
func ReadStaff(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("staff list not found, leaderboards include everyone", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseStaff(data)
}

func ParseStaff(data []byte) ([]string, error) {
	var members []staffMember
	err := yaml.Unmarshal(data, &members)
	if err != nil {
		return nil, fmt.Errorf("parse staff list: %w", err)
	}
	var names []string
	for _, m := range members {
		name := strings.TrimSpace(m.DisplayName)
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

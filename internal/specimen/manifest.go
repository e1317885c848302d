package specimen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the optional file listing a data directory's records in order.
const ManifestName = "specimens.yaml"

// Manifest fixes the order records are merged in, plus the root's imagery.
type Manifest struct {
	Root      RootImages `yaml:"root,omitempty"`
	Specimens []string   `yaml:"specimens"`
}

// RootImages are the pictures shown on the synthetic domain node.
type RootImages struct {
	Front string `yaml:"front_image,omitempty"`
	Back  string `yaml:"back_image,omitempty"`
}

// LoadManifest reads dir/specimens.yaml. A missing manifest is reported as
// (nil, nil) so callers can fall back to Discover.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestName, err)
	}
	for i, name := range m.Specimens {
		m.Specimens[i] = strings.TrimSpace(name)
	}
	return &m, nil
}

// Files returns the manifest entries resolved against dir, skipping blanks.
func (m *Manifest) Files(dir string) []string {
	files := make([]string, 0, len(m.Specimens))
	for _, name := range m.Specimens {
		if name == "" {
			continue
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		files = append(files, name)
	}
	return files
}

// Discover lists record files in dir in lexicographic order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ManifestName {
			continue
		}
		if IsRecordFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsRecordFile reports whether name has a record file extension.
func IsRecordFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return filepath.Base(name) != ManifestName
	}
	return false
}

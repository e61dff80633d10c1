package catalog

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/stepguard/internal/logger"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML catalog, fills ids missing from labels and validates it.
// A catalog without an explicit review key gets none.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c.normalize()
	c.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile loads and parses a single YAML catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	c.SourceFile = path
	return c, nil
}

// LoadFS loads every *.yaml and *.yml catalog below root in fsys, sorted by id.
func LoadFS(fsys fs.FS, root string) ([]*Catalog, error) {
	var out []*Catalog
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		c, err := Parse(data)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		c.SourceFile = path
		out = append(out, c)
		logger.Debug("Loaded catalog %s from %s (%d steps)", c.ID, path, len(c.Steps))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadDir loads every catalog file below dir on disk.
func LoadDir(dir string) ([]*Catalog, error) {
	cs, err := LoadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		c.SourceFile = filepath.Join(dir, c.SourceFile)
	}
	return cs, nil
}

// Marshal encodes a catalog back to YAML.
func Marshal(c *Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

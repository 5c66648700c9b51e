package labs

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

//go:embed seed_labs.yaml
var builtinCatalog []byte

type catalog struct {
	Labs []models.Lab `yaml:"labs"`
}

// DefaultSeed returns the built-in lab catalog.
func DefaultSeed() []models.Lab {
	labs, err := ParseCatalog(builtinCatalog)
	if err != nil {
		// The embedded file is part of the binary; a parse failure is a build defect.
		panic(fmt.Sprintf("builtin lab catalog: %v", err))
	}
	return labs
}

// LoadSeed reads a catalog from path, or returns the built-in one when path
// is empty.
func LoadSeed(path string) ([]models.Lab, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML lab catalog.
func ParseCatalog(data []byte) ([]models.Lab, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Labs))
	for i := range c.Labs {
		l := &c.Labs[i]
		if l.ID == "" {
			return nil, fmt.Errorf("lab %d: id is required", i)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("lab %s: duplicate id", l.ID)
		}
		seen[l.ID] = true
		if !l.Difficulty.IsValid() {
			return nil, fmt.Errorf("lab %s: unknown difficulty %q", l.ID, l.Difficulty)
		}
		if !l.Status.IsValid() {
			return nil, fmt.Errorf("lab %s: unknown status %q", l.ID, l.Status)
		}
		l.Normalize()
	}
	return c.Labs, nil
}

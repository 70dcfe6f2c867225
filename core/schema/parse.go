package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is a model declared in YAML.
type Definition struct {
	Model       string               `yaml:"model"`
	Description string               `yaml:"description,omitempty"`
	Properties  []PropertyDefinition `yaml:"properties"`
}

// PropertyDefinition declares one property of a YAML model.
type PropertyDefinition struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	ID   bool   `yaml:"id,omitempty"`
}

// ParseFile parses a model definition from a YAML file.
func ParseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a model definition from YAML bytes.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(def); err != nil {
		return Definition{}, fmt.Errorf("validate model %q: %w", def.Model, err)
	}

	return def, nil
}

// ParseDir parses all model definitions from a directory, including subdirectories.
func ParseDir(dir string) ([]Definition, error) {
	var defs []Definition

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			defs = append(defs, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		def, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// Validate validates a model definition.
func Validate(def Definition) error {
	var errs []string

	if def.Model == "" {
		errs = append(errs, "model name is required")
	} else if !isValidIdentifier(def.Model) {
		errs = append(errs, fmt.Sprintf("model name %q is not a valid identifier", def.Model))
	}

	if len(def.Properties) == 0 {
		errs = append(errs, "model must have at least one property")
	}

	seen := make(map[string]bool, len(def.Properties))
	ids := 0
	for _, p := range def.Properties {
		if !isValidIdentifier(p.Name) {
			errs = append(errs, fmt.Sprintf("property name %q is not a valid identifier", p.Name))
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("property %q declared twice", p.Name))
		}
		seen[p.Name] = true

		kind, err := ParseKind(p.Type)
		if err != nil {
			errs = append(errs, fmt.Sprintf("property %q: %v", p.Name, err))
			continue
		}
		if p.ID {
			ids++
			if kind != KindInt && kind != KindString {
				errs = append(errs, fmt.Sprintf("property %q: id must be int or string", p.Name))
			}
		}
	}

	if ids != 1 {
		errs = append(errs, fmt.Sprintf("model must have exactly one id property, found %d", ids))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Build turns a validated definition into a Record backed model.
func (d Definition) Build() (*Model, error) {
	specs := make([]PropertySpec, 0, len(d.Properties))
	for _, p := range d.Properties {
		kind, err := ParseKind(p.Type)
		if err != nil {
			return nil, fmt.Errorf("model %s: property %s: %w", d.Model, p.Name, err)
		}
		typ, _ := PrimitiveOf(kind)
		specs = append(specs, PropertySpec{Name: p.Name, Type: typ, ID: p.ID})
	}
	return NewRecordModel(d.Model, specs...)
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		digit := c >= '0' && c <= '9'
		if !letter && (i == 0 || !digit) {
			return false
		}
	}

	return true
}

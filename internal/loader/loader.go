// Package loader reads entity descriptions (tables and their columns) from
// CUE or YAML files and turns them into meta.Table values.
//
// CUE form:
//
//	entity: User: {
//		table: "users"                // optional, defaults to "users"
//		columns: {
//			id:        {type: "int", key: true}
//			name:      {type: "string"}
//			createdAt: {type: "time", column: "created_at"}
//		}
//	}
//
// YAML form:
//
//	entities:
//	  - name: User
//	    columns:
//	      - {property: id, type: int, key: true}
//	      - {property: createdAt, type: time}
//
// A column's property is its logical name; its physical name defaults to
// the underscored property. A table name defaults to the pluralized,
// underscored entity name.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/roach88/stencil/internal/meta"
)

// Entity is one named table description.
type Entity struct {
	Name  string
	Table *meta.Table
}

// Set is an ordered collection of entities with unique names.
type Set struct {
	entities []Entity
}

// Entities returns the entities in load order.
func (s *Set) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Names returns the entity names in load order.
func (s *Set) Names() []string {
	names := make([]string, len(s.entities))
	for i, e := range s.entities {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entities.
func (s *Set) Len() int { return len(s.entities) }

// Lookup finds an entity by name, ignoring case.
func (s *Set) Lookup(name string) (*meta.Table, bool) {
	for _, e := range s.entities {
		if strings.EqualFold(e.Name, name) {
			return e.Table, true
		}
	}
	return nil, false
}

func (s *Set) add(e Entity) error {
	if _, dup := s.Lookup(e.Name); dup {
		return &Error{Entity: e.Name, Field: "entity", Message: "duplicate entity"}
	}
	s.entities = append(s.entities, e)
	return nil
}

// merge appends every entity of other.
func (s *Set) merge(other *Set) error {
	for _, e := range other.entities {
		if err := s.add(e); err != nil {
			return err
		}
	}
	return nil
}

// TableName derives a table name from an entity name: "UserAccount" ->
// "user_accounts".
func TableName(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}

// ColumnName derives a physical column name from a property name:
// "createdAt" -> "created_at".
func ColumnName(property string) string {
	return inflect.Underscore(property)
}

// columnSpec is the format-neutral description of one column.
type columnSpec struct {
	Property string `yaml:"property"`
	Column   string `yaml:"column"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	Key      bool   `yaml:"key"`
}

// entitySpec is the format-neutral description of one entity.
type entitySpec struct {
	Name    string       `yaml:"name"`
	Table   string       `yaml:"table"`
	Columns []columnSpec `yaml:"columns"`
}

// build validates spec and applies naming defaults.
func (spec entitySpec) build() (Entity, error) {
	if spec.Name == "" {
		return Entity{}, &Error{Field: "name", Message: "entity name is required"}
	}
	if len(spec.Columns) == 0 {
		return Entity{}, &Error{Entity: spec.Name, Field: "columns", Message: "at least one column is required"}
	}

	table := spec.Table
	if table == "" {
		table = TableName(spec.Name)
	}

	cols := make([]meta.Column, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		if c.Property == "" && c.Column == "" {
			return Entity{}, &Error{Entity: spec.Name, Field: "columns", Message: "column needs a property or column name"}
		}
		typ := meta.Type(strings.ToLower(c.Type))
		if typ != "" && !typ.Valid() {
			return Entity{}, &Error{Entity: spec.Name, Field: "type", Message: fmt.Sprintf("column %q: unknown type %q", c.Property, c.Type)}
		}
		name := c.Column
		if name == "" {
			name = ColumnName(c.Property)
		}
		cols = append(cols, meta.Column{
			Name:     name,
			Property: c.Property,
			Type:     typ,
			Nullable: c.Nullable,
			Key:      c.Key,
		})
	}

	t := meta.NewTable(table, cols...)
	for _, c := range t.Columns() {
		for _, n := range []string{c.Name, c.Property} {
			if got, _ := t.Lookup(n); got.Name != c.Name {
				return Entity{}, &Error{Entity: spec.Name, Field: "columns", Message: fmt.Sprintf("column name %q is ambiguous", n)}
			}
		}
	}
	return Entity{Name: spec.Name, Table: t}, nil
}

// LoadFile loads one .cue, .yaml or .yml file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(data, path)
	case ".yaml", ".yml":
		set, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return set, nil
	}
	return nil, fmt.Errorf("%s: unsupported entity file type", path)
}

// LoadDir loads every entity file under dir. CUE files are loaded as one
// package; YAML files are loaded one by one in name order.
func LoadDir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return LoadFile(dir)
	}

	cueFiles, yamlFiles, err := findFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, fmt.Errorf("no entity files found in %s", dir)
	}

	set := &Set{}
	if len(cueFiles) > 0 {
		cs, err := loadCUEPackage(dir)
		if err != nil {
			return nil, err
		}
		if err := set.merge(cs); err != nil {
			return nil, err
		}
	}
	for _, path := range yamlFiles {
		ys, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := set.merge(ys); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return set, nil
}

// findFiles lists the CUE and YAML files directly in dir.
func findFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	sort.Strings(cueFiles)
	sort.Strings(yamlFiles)
	return cueFiles, yamlFiles, nil
}

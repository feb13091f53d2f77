package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Entities []entitySpec `yaml:"entities"`
}

// ParseYAML loads entities from YAML. Unknown fields are rejected.
func ParseYAML(data []byte) (*Set, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing entities: %w", err)
	}

	set := &Set{}
	for _, spec := range f.Entities {
		e, err := spec.build()
		if err != nil {
			return nil, err
		}
		if err := set.add(e); err != nil {
			return nil, err
		}
	}
	return set, nil
}

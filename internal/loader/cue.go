package loader

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// schema closes the entity structs so misspelled fields are reported.
const schema = `
#Column: {
	type?:     "string" | "int" | "float" | "decimal" | "bool" | "time" | "bytes" | "uuid" | "json"
	column?:   string
	nullable?: bool
	key?:      bool
}

#Entity: {
	table?: string
	columns: [string]: #Column
}

entity?: [string]: #Entity
`

// ParseCUE loads entities from CUE source. filename is used in error
// positions only.
func ParseCUE(src []byte, filename string) (*Set, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return fromCUE(ctx, v)
}

// loadCUEPackage loads the CUE package in dir.
func loadCUEPackage(dir string) (*Set, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	return fromCUE(ctx, ctx.BuildInstance(inst))
}

func fromCUE(ctx *cue.Context, v cue.Value) (*Set, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	src := v
	v = ctx.CompileString(schema).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	set := &Set{}
	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return set, nil
	}
	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		spec, err := entityFromCUE(name, iter.Value())
		if err != nil {
			return nil, err
		}
		pos := src.LookupPath(cue.MakePath(cue.Str("entity"), cue.Str(name))).Pos()
		e, err := spec.build()
		if err != nil {
			return nil, withPos(err, pos)
		}
		if err := set.add(e); err != nil {
			return nil, withPos(err, pos)
		}
	}
	return set, nil
}

func entityFromCUE(name string, v cue.Value) (entitySpec, error) {
	spec := entitySpec{Name: name}

	if t := v.LookupPath(cue.ParsePath("table")); t.Exists() {
		s, err := t.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Table = s
	}

	iter, err := v.LookupPath(cue.ParsePath("columns")).Fields()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for iter.Next() {
		c := columnSpec{Property: iter.Label()}
		cv := iter.Value()
		if c.Type, err = optionalString(cv, "type"); err != nil {
			return spec, err
		}
		if c.Column, err = optionalString(cv, "column"); err != nil {
			return spec, err
		}
		if c.Nullable, err = optionalBool(cv, "nullable"); err != nil {
			return spec, err
		}
		if c.Key, err = optionalBool(cv, "key"); err != nil {
			return spec, err
		}
		spec.Columns = append(spec.Columns, c)
	}
	return spec, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError keeps the first CUE error with its source position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// withPos attaches pos to a loader error that has none.
func withPos(err error, pos token.Pos) error {
	if e, ok := err.(*Error); ok && !e.Pos.IsValid() {
		e.Pos = pos
	}
	return err
}

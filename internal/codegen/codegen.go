// Package codegen emits rendered statements as Go source: one string
// constant per statement and a slice of its parameter names, so generated
// repositories can bind arguments without re-rendering at run time.
package codegen

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/template"
)

// Header is the first line of every emitted file.
const Header = "Code generated by stencil. DO NOT EDIT."

// Statement is one rendered statement to emit.
type Statement struct {
	// Name is the constant's name. It is camelized, so "find_users" and
	// "findUsers" both become FindUsers.
	Name string
	// Dialect is recorded in the doc comment.
	Dialect string
	// Source is the template the statement was rendered from, if known.
	Source string
	SQL    string
	// Params are parameter names in binding order: first appearance for
	// named dialects, one entry per marker for positional ones.
	Params []string
}

// FromRendered builds a Statement from a render for dialect d.
func FromRendered(name string, d dialect.Descriptor, source string, r *template.Rendered) Statement {
	params := r.Names()
	if d.Positional {
		params = r.Occurrences()
	}
	return Statement{
		Name:    name,
		Dialect: d.Name,
		Source:  source,
		SQL:     r.SQL,
		Params:  params,
	}
}

// Identifier returns the exported Go name for a statement name.
func Identifier(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("statement name is empty")
	}
	id := inflect.Camelize(name)
	if !token.IsIdentifier(id) || !token.IsExported(id) {
		return "", fmt.Errorf("statement name %q does not form an exported Go identifier (got %q)", name, id)
	}
	return id, nil
}

// Emit renders stmts as a Go file in package pkg.
func Emit(pkg string, stmts []Statement) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}

	f := jen.NewFile(pkg)
	f.HeaderComment(Header)

	seen := make(map[string]string, len(stmts)*2)
	claim := func(id, owner string) error {
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("statements %q and %q both produce identifier %s", prev, owner, id)
		}
		seen[id] = owner
		return nil
	}

	for _, s := range stmts {
		id, err := Identifier(s.Name)
		if err != nil {
			return nil, err
		}
		paramsID := id + "Params"
		if err := claim(id, s.Name); err != nil {
			return nil, err
		}
		if err := claim(paramsID, s.Name); err != nil {
			return nil, err
		}

		f.Comment(docLine(id, s))
		if s.Source != "" {
			f.Comment("")
			f.Comment("\t" + strings.Join(strings.Fields(s.Source), " "))
		}
		f.Const().Id(id).Op("=").Lit(s.SQL)

		f.Comment(fmt.Sprintf("%s lists the parameters of %s in binding order.", paramsID, id))
		f.Var().Id(paramsID).Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
			for _, p := range s.Params {
				g.Lit(p)
			}
		})
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering package %s: %w", pkg, err)
	}
	return buf.Bytes(), nil
}

func docLine(id string, s Statement) string {
	if s.Dialect == "" {
		return id + " is a rendered statement."
	}
	return fmt.Sprintf("%s is rendered for %s.", id, s.Dialect)
}

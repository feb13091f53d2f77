package template

import (
	"github.com/roach88/stencil/internal/dialect"
)

func prepareBoolLiteral(v bool) func(s *site) (instruction, error) {
	return func(s *site) (instruction, error) {
		return static(s.d().BoolLiteral(v)), nil
	}
}

func prepareCurrentTimestamp(s *site) (instruction, error) {
	return static(s.d().CurrentTimestamp), nil
}

func prepareAutoIncrement(s *site) (instruction, error) {
	if s.d().AutoIncrement == "" {
		return instruction{}, &dialect.UnsupportedDialectError{Name: s.d().Name, Feature: "auto increment"}
	}
	return static(s.d().AutoIncrement), nil
}

// {{param name}}
func prepareParam(s *site) (instruction, error) {
	name := s.args[0]
	if err := s.paramName(name); err != nil {
		return instruction{}, err
	}
	return static(s.d().Marker(name), name), nil
}

// Package model holds the ORM-neutral description of a generated model.
//
// A Model is an ordered list of columns, table options, associations and hooks.
// Builders in this package derive models from table plans; the formatter package
// renders them as source text.
package model

import (
	"errors"
	"fmt"
)

// ErrColumnNameCollision is returned when two columns of one model share a name
var ErrColumnNameCollision = errors.New("column name collision")

// ColumnType is the storage type of a column
type ColumnType int

const (
	Text ColumnType = iota
	ShortString // 100 character string used for Fulcrum identifiers
	Integer
	Decimal
	Date
	JSON
	GeometryPoint // point geometry in SRID 4326
)

// Column is one attribute of a model
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	Comment    string
	HasComment bool // emit the comment even when it is empty
}

// Option is one table level setting. Value is emitted quoted when it is a string
// and as its literal text otherwise.
type Option struct {
	Key   string
	Value any
}

// Association is a one-to-many relation to another model
type Association struct {
	Target     string
	ForeignKey string
	OnDelete   string
}

// HookKind identifies a generated lifecycle hook
type HookKind int

const (
	// GeometrySync rebuilds the geometry column from latitude and longitude
	GeometrySync HookKind = iota
)

// Hook is a lifecycle hook attached to the model
type Hook struct {
	Event string
	Kind  HookKind
}

// Model describes one generated model file
type Model struct {
	Table        string
	Var          string // identifier bound to the defined model
	Columns      []Column
	Options      []Option
	Associations []Association
	Hooks        []Hook
	Link         bool // join table, no association block
}

// Column returns the column with the given name
func (m *Model) Column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in order
func (m *Model) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// CheckColumns fails on the first column name that appears more than once
func (m *Model) CheckColumns() error {
	seen := make(map[string]bool, len(m.Columns))
	for _, c := range m.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: %q appears more than once in table %q", ErrColumnNameCollision, c.Name, m.Table)
		}
		seen[c.Name] = true
	}
	return nil
}

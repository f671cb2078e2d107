// Package planner groups the elements of a form into the tables that will be emitted.
package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/fulcrumgen/internal/schema"
)

var (
	ErrMissingRoot        = errors.New("element is not attached to the form root")
	ErrParentCycle        = errors.New("element parent chain does not terminate")
	ErrTableNameCollision = errors.New("table name collision")
	ErrInvalidTableName   = errors.New("invalid table name")
)

// RecordLinkMode selects how multi-select record link fields are planned
type RecordLinkMode string

const (
	// RecordLinkJoin plans a narrow <owner>_<field> join table per field
	RecordLinkJoin RecordLinkMode = "join"
	// RecordLinkTable plans a full table per field, like a repeatable
	RecordLinkTable RecordLinkMode = "table"
)

// Valid reports whether m is a known mode
func (m RecordLinkMode) Valid() bool {
	return m == RecordLinkJoin || m == RecordLinkTable
}

// Table is the plan for one emitted model
type Table struct {
	Name            string
	Root            bool
	GeometryEnabled bool
	Elements        []*schema.Element // non-cosmetic members in document order
	Children        []string          // child and join tables in document order
	Owner           *schema.Element   // form root, repeatable or record link the table derives from
}

// LinkTable is the plan for a join table of a multi-select record link
type LinkTable struct {
	Name    string
	Owner   string // owning table name
	Element *schema.Element
}

// Plan is the result of planning a form
type Plan struct {
	Form       *schema.Form
	Tables     []*Table
	LinkTables []*LinkTable
}

// Table returns the planned table with the given name
func (p *Plan) Table(name string) (*Table, bool) {
	for _, t := range p.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// GeometryFlags returns the geometry flag of every planned table keyed by name
func (p *Plan) GeometryFlags() map[string]bool {
	flags := make(map[string]bool, len(p.Tables))
	for _, t := range p.Tables {
		flags[t.Name] = t.GeometryEnabled
	}
	return flags
}

// LinkTableNames returns the join table names in document order
func (p *Plan) LinkTableNames() []string {
	names := make([]string, 0, len(p.LinkTables))
	for _, lt := range p.LinkTables {
		names = append(names, lt.Name)
	}
	return names
}

// Planner builds table plans from a form
type Planner struct {
	rootTable string
	mode      RecordLinkMode
}

// New creates a planner naming the form's own table rootTable
func New(rootTable string, mode RecordLinkMode) *Planner {
	if mode == "" {
		mode = RecordLinkJoin
	}
	return &Planner{rootTable: rootTable, mode: mode}
}

// Plan walks the form in document order and groups its elements by owning table
func (p *Planner) Plan(form *schema.Form) (*Plan, error) {
	if p.rootTable == "" {
		return nil, fmt.Errorf("%w: root table name is required", ErrInvalidTableName)
	}
	if !p.mode.Valid() {
		return nil, fmt.Errorf("unknown record link mode %q", p.mode)
	}
	if form == nil || form.Root == nil || form.Root.Kind != schema.KindForm {
		return nil, ErrMissingRoot
	}

	all := form.AllElements()
	b := &builder{
		planner: p,
		plan:    &Plan{Form: form},
		byOwner: make(map[*schema.Element]*Table),
		names:   make(map[string]*schema.Element),
		depth:   len(all) + 1,
	}

	if _, err := b.table(form.Root); err != nil {
		return nil, err
	}

	for _, el := range all {
		if el.IsCosmetic() {
			continue
		}

		owner, err := b.owner(el)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", el.DataName, err)
		}
		t, err := b.table(owner)
		if err != nil {
			return nil, err
		}
		t.Elements = append(t.Elements, el)

		switch {
		case el.Kind == schema.KindRepeatable:
			child, err := b.table(el)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child.Name)
		case el.IsMultiRecordLink() && p.mode == RecordLinkTable:
			child, err := b.table(el)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child.Name)
		case el.IsMultiRecordLink():
			name := t.Name + "_" + el.DataName
			if err := b.claim(name, el); err != nil {
				return nil, err
			}
			b.plan.LinkTables = append(b.plan.LinkTables, &LinkTable{Name: name, Owner: t.Name, Element: el})
			t.Children = append(t.Children, name)
		}
	}

	return b.plan, nil
}

type builder struct {
	planner *Planner
	plan    *Plan
	byOwner map[*schema.Element]*Table
	names   map[string]*schema.Element
	depth   int
}

// owner walks up the parent chain to the nearest repeatable or the form root
func (b *builder) owner(el *schema.Element) (*schema.Element, error) {
	parent := el.Parent
	for i := 0; i < b.depth; i++ {
		if parent == nil {
			return nil, ErrMissingRoot
		}
		if parent.Kind == schema.KindForm || parent.Kind == schema.KindRepeatable {
			return parent, nil
		}
		parent = parent.Parent
	}
	return nil, ErrParentCycle
}

// table returns the table derived from owner, creating it on first sight
func (b *builder) table(owner *schema.Element) (*Table, error) {
	if t, ok := b.byOwner[owner]; ok {
		return t, nil
	}

	t := &Table{Owner: owner}
	if owner.Kind == schema.KindForm {
		t.Name = b.planner.rootTable
		t.Root = true
	} else {
		t.Name = owner.DataName
	}
	if owner.Kind == schema.KindForm || owner.Kind == schema.KindRepeatable {
		t.GeometryEnabled = owner.GeometryEnabled
	}

	if err := b.claim(t.Name, owner); err != nil {
		return nil, err
	}
	b.byOwner[owner] = t
	b.plan.Tables = append(b.plan.Tables, t)
	return t, nil
}

func (b *builder) claim(name string, el *schema.Element) error {
	if !validTableName(name) {
		return fmt.Errorf("%w: %q derived from %s cannot be used as a file name", ErrInvalidTableName, name, describe(el))
	}
	if prev, ok := b.names[name]; ok && prev != el {
		return fmt.Errorf("%w: %q is derived from both %s and %s", ErrTableNameCollision, name, describe(prev), describe(el))
	}
	b.names[name] = el
	return nil
}

// validTableName rejects names that would leave the output directory
func validTableName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func describe(el *schema.Element) string {
	if el.Kind == schema.KindForm {
		return "the form"
	}
	return fmt.Sprintf("%s %q", el.Kind, el.DataName)
}

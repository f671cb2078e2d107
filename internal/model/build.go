package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tordrt/fulcrumgen/internal/planner"
	"github.com/tordrt/fulcrumgen/internal/schema"
)

// Fixed column names shared by every generated model
const (
	IDColumn       = "fulcrum_id"
	ParentIDColumn = "fulcrum_parent_id"
	RecordIDColumn = "fulcrum_record_id"
	GeometryColumn = "the_geom"
)

// BuildOptions carries the settings that affect every model
type BuildOptions struct {
	Additional   []Option
	GeometryHook bool
}

// Build derives the model of a planned table
func Build(t *planner.Table, form *schema.Form, opts BuildOptions) *Model {
	m := &Model{Table: t.Name, Var: VarName(t.Name)}

	m.Columns = append(m.Columns,
		Column{Name: IDColumn, Type: ShortString, PrimaryKey: true, Comment: "Fulcrum ID", HasComment: true},
		Column{Name: "created_duration", Type: Text},
		Column{Name: "updated_duration", Type: Text},
		Column{Name: "edited_duration", Type: Text},
		Column{Name: "created_at", Type: Date},
		Column{Name: "updated_at", Type: Date},
	)

	if t.Root {
		if form != nil && form.StatusField.Enabled && form.StatusField.DataName != "" {
			m.Columns = append(m.Columns, Column{Name: form.StatusField.DataName, Type: Text})
		}
		m.Columns = append(m.Columns,
			Column{Name: "version", Type: Integer},
			Column{Name: "client_created_at", Type: Date},
			Column{Name: "client_updated_at", Type: Date},
			Column{Name: "created_by", Type: Text},
			Column{Name: "created_by_id", Type: Text},
			Column{Name: "updated_by", Type: Text},
			Column{Name: "updated_by_id", Type: Text},
			Column{Name: "form_id", Type: Text},
		)
	} else {
		m.Columns = append(m.Columns,
			Column{Name: RecordIDColumn, Type: ShortString, Comment: "Fulcrum Record ID", HasComment: true})
	}

	if t.GeometryEnabled {
		m.Columns = append(m.Columns,
			Column{Name: GeometryColumn, Type: GeometryPoint},
			Column{Name: "latitude", Type: Decimal},
			Column{Name: "longitude", Type: Decimal},
			Column{Name: "altitude", Type: Decimal},
			Column{Name: "horizontal_accuracy", Type: Decimal},
			Column{Name: "vertical_accuracy", Type: Decimal},
			Column{Name: "created_location", Type: JSON},
			Column{Name: "updated_location", Type: JSON},
		)
		if t.Root {
			m.Columns = append(m.Columns,
				Column{Name: "speed", Type: Decimal},
				Column{Name: "course", Type: Decimal},
			)
		}
	}

	for _, el := range t.Elements {
		m.Columns = append(m.Columns, FieldColumns(el)...)
	}

	m.Options = tableOptions(t.Name, opts.Additional)

	for _, child := range t.Children {
		m.Associations = append(m.Associations, Association{
			Target:     child,
			ForeignKey: ParentIDColumn,
			OnDelete:   "CASCADE",
		})
	}

	if t.GeometryEnabled && opts.GeometryHook {
		m.Hooks = append(m.Hooks, Hook{Event: "afterValidate", Kind: GeometrySync})
	}

	return m
}

// BuildLink derives the model of a record link join table
func BuildLink(lt *planner.LinkTable, opts BuildOptions) *Model {
	return &Model{
		Table: lt.Name,
		Var:   VarName(lt.Name),
		Link:  true,
		Columns: []Column{
			{Name: IDColumn, Type: ShortString, PrimaryKey: true, Comment: "Fulcrum ID", HasComment: true},
			{Name: ParentIDColumn, Type: ShortString, PrimaryKey: true, Comment: "Fulcrum Parent ID", HasComment: true},
			{Name: RecordIDColumn, Type: ShortString, Comment: "Fulcrum Record ID", HasComment: true},
		},
		Options: tableOptions(lt.Name, opts.Additional),
	}
}

// FieldColumns returns the columns produced by one element. Repeatables and
// multi-select record links produce none; they become associations instead.
func FieldColumns(el *schema.Element) []Column {
	if el.Kind == schema.KindRepeatable || el.IsMultiRecordLink() || el.IsCosmetic() {
		return nil
	}

	label := strings.TrimSpace(el.Label)
	cols := []Column{{Name: el.DataName, Type: Text, Comment: label, HasComment: true}}

	aux := func(suffix string) {
		cols = append(cols, Column{
			Name:       el.DataName + "_" + suffix,
			Type:       Text,
			Comment:    strings.TrimSpace(label + " (" + suffix + ")"),
			HasComment: true,
		})
	}

	switch {
	case el.Kind == schema.KindChoice && el.AllowOther:
		aux("other")
	case el.HasMedia():
		aux("caption")
	case el.Kind == schema.KindSignature:
		aux("timestamp")
	}
	return cols
}

func tableOptions(table string, additional []Option) []Option {
	opts := make([]Option, 0, len(additional)+1)
	opts = append(opts, Option{Key: "tableName", Value: table})
	return append(opts, additional...)
}

// VarName turns a table name into the identifier bound to its model:
// every word is capitalized and separators are dropped.
func VarName(table string) string {
	words := strings.FieldsFunc(table, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}

	name := b.String()
	if name == "" {
		return "Model"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	if name == "DataTypes" {
		// would shadow the factory parameter
		name += "Model"
	}
	return name
}

package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tordrt/fulcrumgen/internal/model"
)

// SequelizeFormatter renders models as Sequelize model factory modules
type SequelizeFormatter struct {
	writer io.Writer
	indent string
}

// NewSequelizeFormatter creates a new Sequelize formatter writing one indent unit per level
func NewSequelizeFormatter(w io.Writer, indent string) *SequelizeFormatter {
	return &SequelizeFormatter{writer: w, indent: indent}
}

// Indent returns the indent unit for the given settings
func Indent(spaces bool, width int) string {
	if !spaces {
		return "\t"
	}
	return strings.Repeat(" ", width)
}

// Render returns the source text of a single model
func Render(m *model.Model, indent string) string {
	var b strings.Builder
	_ = NewSequelizeFormatter(&b, indent).Format(m)
	return b.String()
}

// Format writes the model definition
func (f *SequelizeFormatter) Format(m *model.Model) error {
	var b strings.Builder
	line := func(level int, format string, args ...any) {
		b.WriteString(strings.Repeat(f.indent, level))
		_, _ = fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(0, "module.exports = function(sequelize, DataTypes) {")
	line(1, "const %s = sequelize.define(%s, {", m.Var, Quote(m.Table))

	for _, col := range m.Columns {
		if !col.PrimaryKey && !col.HasComment {
			line(2, "%s: %s,", Key(col.Name), columnType(col.Type))
			continue
		}
		line(2, "%s: {", Key(col.Name))
		if col.PrimaryKey {
			line(3, "primaryKey: true,")
		}
		line(3, "type: %s,", columnType(col.Type))
		if col.HasComment || col.Comment != "" {
			line(3, "comment: %s,", Quote(col.Comment))
		}
		line(2, "},")
	}

	line(1, "}, {")
	for _, opt := range m.Options {
		line(2, "%s: %s,", Key(opt.Key), Literal(opt.Value))
	}
	line(1, "});")

	if !m.Link {
		b.WriteByte('\n')
		line(1, "%s.associate = function (models) {", m.Var)
		line(2, "// Define associations here")
		line(2, "// See http://docs.sequelizejs.com/en/latest/docs/associations/")
		for _, assoc := range m.Associations {
			line(2, "%s.hasMany(%s, { foreignKey: %s, onDelete: %s });",
				m.Var, member("models", assoc.Target), Quote(assoc.ForeignKey), Quote(assoc.OnDelete))
		}
		line(1, "};")
	}

	for _, hook := range m.Hooks {
		b.WriteByte('\n')
		f.formatHook(line, m, hook)
	}

	b.WriteByte('\n')
	line(1, "return %s;", m.Var)
	line(0, "};")

	_, err := io.WriteString(f.writer, b.String())
	return err
}

func (f *SequelizeFormatter) formatHook(line func(int, string, ...any), m *model.Model, hook model.Hook) {
	switch hook.Kind {
	case model.GeometrySync:
		line(1, "%s.addHook(%s, function (instance) {", m.Var, Quote(hook.Event))
		line(2, "if (instance.latitude != null && instance.longitude != null) {")
		line(3, "instance.%s = {", model.GeometryColumn)
		line(4, "type: 'Point',")
		line(4, "coordinates: [Number(instance.longitude), Number(instance.latitude)],")
		line(4, "crs: { type: 'name', properties: { name: 'EPSG:4326' } },")
		line(3, "};")
		line(2, "}")
		line(1, "});")
	}
}

func columnType(t model.ColumnType) string {
	switch t {
	case model.ShortString:
		return "DataTypes.STRING(100)"
	case model.Integer:
		return "DataTypes.INTEGER"
	case model.Decimal:
		return "DataTypes.DECIMAL"
	case model.Date:
		return "DataTypes.DATE"
	case model.JSON:
		return "DataTypes.JSON"
	case model.GeometryPoint:
		return "DataTypes.GEOMETRY('POINT', 4326)"
	default:
		return "DataTypes.TEXT"
	}
}

// Quote returns s as a single quoted JavaScript string literal
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Literal renders an option value. Strings, timestamps and Stringers are
// quoted, everything else is written as its literal text.
func Literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return float(v)
	case time.Time:
		return Quote(v.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return Quote(v.String())
	}

	// maps and slices come out as JSON, which is valid JavaScript
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func float(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Key renders an object key, quoting it when it is not a plain identifier
func Key(name string) string {
	if isIdentifier(name) {
		return name
	}
	return Quote(name)
}

func member(object, name string) string {
	if isIdentifier(name) {
		return object + "." + name
	}
	return object + "[" + Quote(name) + "]"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/fulcrumgen/internal/planner"
	"github.com/tordrt/fulcrumgen/internal/schema"
)

var baseColumns = []string{
	"fulcrum_id",
	"created_duration", "updated_duration", "edited_duration",
	"created_at", "updated_at",
}

var rootColumns = []string{
	"version", "client_created_at", "client_updated_at",
	"created_by", "created_by_id", "updated_by", "updated_by_id", "form_id",
}

var geometryColumns = []string{
	"the_geom", "latitude", "longitude", "altitude",
	"horizontal_accuracy", "vertical_accuracy", "created_location", "updated_location",
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func planFor(t *testing.T, form *schema.Form, mode planner.RecordLinkMode) *planner.Plan {
	t.Helper()
	plan, err := planner.New("inspections", mode).Plan(form)
	require.NoError(t, err)
	return plan
}

func TestBuildRootWithoutGeometry(t *testing.T) {
	form := schema.NewForm("f", "Inspections", false)
	plan := planFor(t, form, planner.RecordLinkJoin)

	m := Build(plan.Tables[0], form, BuildOptions{})
	assert.Equal(t, "Inspections", m.Var)
	assert.Equal(t, concat(baseColumns, rootColumns), m.ColumnNames())
	assert.Empty(t, m.Associations)
	assert.Empty(t, m.Hooks)
	assert.Equal(t, []Option{{Key: "tableName", Value: "inspections"}}, m.Options)

	for _, name := range append(geometryColumns, "speed", "course") {
		_, ok := m.Column(name)
		assert.False(t, ok, "unexpected geometry column %s", name)
	}
}

func TestBuildRootWithGeometryAndStatus(t *testing.T) {
	form := schema.NewForm("f", "Inspections", true, &schema.Element{Kind: schema.KindField, DataName: "notes", Label: "Notes"})
	form.StatusField = schema.StatusField{Enabled: true, DataName: "inspection_status"}
	plan := planFor(t, form, planner.RecordLinkJoin)

	m := Build(plan.Tables[0], form, BuildOptions{GeometryHook: true})
	want := concat(baseColumns, []string{"inspection_status"}, rootColumns, geometryColumns, []string{"speed", "course", "notes"})
	assert.Equal(t, want, m.ColumnNames())
	assert.Equal(t, []Hook{{Event: "afterValidate", Kind: GeometrySync}}, m.Hooks)

	geom, _ := m.Column("the_geom")
	assert.Equal(t, GeometryPoint, geom.Type)
	loc, _ := m.Column("created_location")
	assert.Equal(t, JSON, loc.Type)
}

func TestBuildDisabledStatusField(t *testing.T) {
	form := schema.NewForm("f", "Inspections", false)
	form.StatusField = schema.StatusField{Enabled: false, DataName: "status"}
	plan := planFor(t, form, planner.RecordLinkJoin)

	m := Build(plan.Tables[0], form, BuildOptions{})
	_, ok := m.Column("status")
	assert.False(t, ok)
}

func TestBuildChildTable(t *testing.T) {
	photos := &schema.Element{Kind: schema.KindRepeatable, DataName: "photos", GeometryEnabled: true, Elements: []*schema.Element{
		{Kind: schema.KindPhoto, DataName: "picture", Label: "Site Photo"},
	}}
	form := schema.NewForm("f", "Inspections", false, photos)
	plan := planFor(t, form, planner.RecordLinkJoin)

	root := Build(plan.Tables[0], form, BuildOptions{})
	assert.Equal(t, []Association{{Target: "photos", ForeignKey: "fulcrum_parent_id", OnDelete: "CASCADE"}}, root.Associations)
	_, ok := root.Column("photos")
	assert.False(t, ok, "repeatables never produce a column")

	child := Build(plan.Tables[1], form, BuildOptions{GeometryHook: true})
	want := concat(baseColumns, []string{"fulcrum_record_id"}, geometryColumns, []string{"picture", "picture_caption"})
	assert.Equal(t, want, child.ColumnNames())
	assert.Len(t, child.Hooks, 1)

	caption, _ := child.Column("picture_caption")
	assert.Equal(t, "Site Photo (caption)", caption.Comment)
}

func TestBuildAdditionalOptions(t *testing.T) {
	form := schema.NewForm("f", "Inspections", false)
	plan := planFor(t, form, planner.RecordLinkJoin)

	m := Build(plan.Tables[0], form, BuildOptions{Additional: []Option{
		{Key: "timestamps", Value: false},
		{Key: "schema", Value: "fulcrum"},
	}})
	assert.Equal(t, []Option{
		{Key: "tableName", Value: "inspections"},
		{Key: "timestamps", Value: false},
		{Key: "schema", Value: "fulcrum"},
	}, m.Options)
}

func TestBuildLink(t *testing.T) {
	sites := &schema.Element{Kind: schema.KindRecordLink, DataName: "sites", AllowMultiple: true}
	form := schema.NewForm("f", "Inspections", true, sites)
	plan := planFor(t, form, planner.RecordLinkJoin)
	require.Len(t, plan.LinkTables, 1)

	m := BuildLink(plan.LinkTables[0], BuildOptions{Additional: []Option{{Key: "timestamps", Value: false}}})
	assert.True(t, m.Link)
	assert.Equal(t, "InspectionsSites", m.Var)
	assert.Equal(t, []string{"fulcrum_id", "fulcrum_parent_id", "fulcrum_record_id"}, m.ColumnNames())
	assert.Empty(t, m.Associations)
	assert.Equal(t, []Option{
		{Key: "tableName", Value: "inspections_sites"},
		{Key: "timestamps", Value: false},
	}, m.Options)

	id, _ := m.Column("fulcrum_id")
	parent, _ := m.Column("fulcrum_parent_id")
	assert.True(t, id.PrimaryKey)
	assert.True(t, parent.PrimaryKey)

	root := Build(plan.Tables[0], form, BuildOptions{})
	assert.Equal(t, "inspections_sites", root.Associations[0].Target)
	_, ok := root.Column("sites")
	assert.False(t, ok)
}

func TestFieldColumns(t *testing.T) {
	tests := []struct {
		name     string
		element  *schema.Element
		want     []string
		comments []string
	}{
		{
			name:     "text",
			element:  &schema.Element{Kind: schema.KindField, DataName: "notes", Label: "  Notes "},
			want:     []string{"notes"},
			comments: []string{"Notes"},
		},
		{
			name:     "choice with other",
			element:  &schema.Element{Kind: schema.KindChoice, DataName: "weather", Label: "Weather", AllowOther: true},
			want:     []string{"weather", "weather_other"},
			comments: []string{"Weather", "Weather (other)"},
		},
		{
			name:     "choice without other",
			element:  &schema.Element{Kind: schema.KindChoice, DataName: "weather", Label: "Weather"},
			want:     []string{"weather"},
			comments: []string{"Weather"},
		},
		{
			name:     "audio",
			element:  &schema.Element{Kind: schema.KindAudio, DataName: "memo", Label: "Memo"},
			want:     []string{"memo", "memo_caption"},
			comments: []string{"Memo", "Memo (caption)"},
		},
		{
			name:     "video",
			element:  &schema.Element{Kind: schema.KindVideo, DataName: "clip"},
			want:     []string{"clip", "clip_caption"},
			comments: []string{"", "(caption)"},
		},
		{
			name:     "signature",
			element:  &schema.Element{Kind: schema.KindSignature, DataName: "sig", Label: "Driver's Signature"},
			want:     []string{"sig", "sig_timestamp"},
			comments: []string{"Driver's Signature", "Driver's Signature (timestamp)"},
		},
		{
			name:     "single record link",
			element:  &schema.Element{Kind: schema.KindRecordLink, DataName: "site", Label: "Site"},
			want:     []string{"site"},
			comments: []string{"Site"},
		},
		{
			name:    "multi record link",
			element: &schema.Element{Kind: schema.KindRecordLink, DataName: "sites", AllowMultiple: true},
		},
		{
			name:    "repeatable",
			element: &schema.Element{Kind: schema.KindRepeatable, DataName: "items"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := FieldColumns(tt.element)
			require.Len(t, cols, len(tt.want))
			for i, c := range cols {
				assert.Equal(t, tt.want[i], c.Name)
				assert.Equal(t, tt.comments[i], c.Comment)
				assert.Equal(t, Text, c.Type)
				assert.True(t, c.HasComment)
			}
		})
	}
}

func TestVarName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "inspections", want: "Inspections"},
		{in: "inspection_photos", want: "InspectionPhotos"},
		{in: "site-visit log", want: "SiteVisitLog"},
		{in: "fieldVisits", want: "FieldVisits"},
		{in: "photos_2", want: "Photos2"},
		{in: "2019_visits", want: "_2019Visits"},
		{in: "data_types", want: "DataTypesModel"},
		{in: "__", want: "Model"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, VarName(tt.in))
		})
	}
}

func TestCheckColumns(t *testing.T) {
	form := schema.NewForm("f", "Inspections", false,
		&schema.Element{Kind: schema.KindChoice, DataName: "weather", AllowOther: true},
		&schema.Element{Kind: schema.KindField, DataName: "notes"},
	)
	m := Build(planFor(t, form, planner.RecordLinkJoin).Tables[0], form, BuildOptions{})
	require.NoError(t, m.CheckColumns())

	m.Columns = append(m.Columns, Column{Name: "weather_other", Type: Text})
	err := m.CheckColumns()
	assert.ErrorIs(t, err, ErrColumnNameCollision)
	assert.Contains(t, err.Error(), `"weather_other"`)
	assert.Contains(t, err.Error(), `"inspections"`)
}
